package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sventena/guestlist/internal/domain"
)

type PhotoRepository interface {
	Insert(ctx context.Context, id, eventID, storagePath string) (*domain.Photo, error)
	// ListActive returns non-deleted photos, newest first.
	ListActive(ctx context.Context, eventID string) ([]domain.Photo, error)
	GetByID(ctx context.Context, id, eventID string) (*domain.Photo, error)
	SoftDelete(ctx context.Context, id, eventID string, at time.Time) (bool, error)
}

type photoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

const photoCols = `id, event_id, storage_path, created_at, deleted_at`

func scanPhoto(row pgx.Row) (*domain.Photo, error) {
	var p domain.Photo
	err := row.Scan(&p.ID, &p.EventID, &p.StoragePath, &p.CreatedAt, &p.DeletedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *photoRepository) Insert(ctx context.Context, id, eventID, storagePath string) (*domain.Photo, error) {
	const q = `INSERT INTO event_photos (id, event_id, storage_path)
	VALUES ($1,$2,$3)
	RETURNING ` + photoCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanPhoto(r.pool.QueryRow(ctx, q, id, eventID, storagePath))
}

func (r *photoRepository) ListActive(ctx context.Context, eventID string) ([]domain.Photo, error) {
	const q = `SELECT ` + photoCols + ` FROM event_photos
	WHERE event_id=$1 AND deleted_at IS NULL
	ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (r *photoRepository) GetByID(ctx context.Context, id, eventID string) (*domain.Photo, error) {
	const q = `SELECT ` + photoCols + ` FROM event_photos WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanPhoto(r.pool.QueryRow(ctx, q, id, eventID))
}

func (r *photoRepository) SoftDelete(ctx context.Context, id, eventID string, at time.Time) (bool, error) {
	const q = `UPDATE event_photos SET deleted_at=$3 WHERE id=$1 AND event_id=$2 AND deleted_at IS NULL`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
