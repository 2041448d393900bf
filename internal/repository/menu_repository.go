package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sventena/guestlist/internal/domain"
)

type MenuRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]domain.MenuOption, error)
	GetByID(ctx context.Context, id, eventID string) (*domain.MenuOption, error)
	Create(ctx context.Context, eventID, title string, description *string, position int) (*domain.MenuOption, error)
	Update(ctx context.Context, id, eventID, title string, description *string) (bool, error)
	Delete(ctx context.Context, id, eventID string) (bool, error)
}

type menuRepository struct {
	pool *pgxpool.Pool
}

func NewMenuRepository(pool *pgxpool.Pool) MenuRepository {
	return &menuRepository{pool: pool}
}

const menuCols = `id, event_id, title, description, position, created_at`

func scanMenu(row pgx.Row) (*domain.MenuOption, error) {
	var m domain.MenuOption
	err := row.Scan(&m.ID, &m.EventID, &m.Title, &m.Description, &m.Position, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *menuRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.MenuOption, error) {
	const q = `SELECT ` + menuCols + ` FROM event_menus WHERE event_id=$1 ORDER BY position ASC, created_at ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []domain.MenuOption
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, *m)
	}
	return options, rows.Err()
}

func (r *menuRepository) GetByID(ctx context.Context, id, eventID string) (*domain.MenuOption, error) {
	const q = `SELECT ` + menuCols + ` FROM event_menus WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanMenu(r.pool.QueryRow(ctx, q, id, eventID))
}

func (r *menuRepository) Create(ctx context.Context, eventID, title string, description *string, position int) (*domain.MenuOption, error) {
	const q = `INSERT INTO event_menus (id, event_id, title, description, position)
	VALUES ($1,$2,$3,$4,$5)
	RETURNING ` + menuCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanMenu(r.pool.QueryRow(ctx, q, uuid.NewString(), eventID, title, description, position))
}

func (r *menuRepository) Update(ctx context.Context, id, eventID, title string, description *string) (bool, error) {
	const q = `UPDATE event_menus SET title=$3, description=$4 WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, title, description)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *menuRepository) Delete(ctx context.Context, id, eventID string) (bool, error) {
	const q = `DELETE FROM event_menus WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
