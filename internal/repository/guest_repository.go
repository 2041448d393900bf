package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sventena/guestlist/internal/domain"
)

type GuestRepository interface {
	// Resolve maps a display name to a stable guest id within an event,
	// creating the row if absent. Safe under concurrent first resolution:
	// the unique constraint on (event_id, normalized_name) arbitrates, and
	// a losing insert falls back to the winner's row.
	Resolve(ctx context.Context, eventID, name string) (*domain.Guest, bool, error)
	GetByID(ctx context.Context, id, eventID string) (*domain.Guest, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Guest, error)
	UpdateRSVP(ctx context.Context, id, eventID string, status domain.RSVPStatus, menuChoice *string, at time.Time) (bool, error)
	UpdateMenuChoice(ctx context.Context, id, eventID string, menuChoice *string) (bool, error)
	MarkSeenUpdate(ctx context.Context, id, eventID string, at time.Time) (bool, error)

	// Host-side guest management.
	CreateByHost(ctx context.Context, eventID, name string, email *string) (*domain.Guest, error)
	UpdateByHost(ctx context.Context, id, eventID, name string, email *string) (bool, error)
	Delete(ctx context.Context, id, eventID string) (bool, error)
}

type guestRepository struct {
	pool *pgxpool.Pool
}

func NewGuestRepository(pool *pgxpool.Pool) GuestRepository {
	return &guestRepository{pool: pool}
}

const guestCols = `id, event_id, name, normalized_name, email,
rsvp_status, rsvp_at, menu_choice, last_seen_update_at, created_at, updated_at`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.EventID, &g.Name, &g.NormalizedName, &g.Email,
		&g.RSVPStatus, &g.RSVPAt, &g.MenuChoice, &g.LastSeenUpdateAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *guestRepository) Resolve(ctx context.Context, eventID, name string) (*domain.Guest, bool, error) {
	normalized := domain.NormalizeGuestName(name)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	const lookup = `SELECT ` + guestCols + ` FROM guests WHERE event_id=$1 AND normalized_name=$2`
	if g, err := scanGuest(r.pool.QueryRow(ctx, lookup, eventID, normalized)); err != nil {
		return nil, false, err
	} else if g != nil {
		return g, false, nil
	}

	const insert = `INSERT INTO guests (id, event_id, name, normalized_name, rsvp_status)
	VALUES ($1,$2,$3,$4,'pending')
	ON CONFLICT (event_id, normalized_name) DO NOTHING
	RETURNING ` + guestCols

	g, err := scanGuest(r.pool.QueryRow(ctx, insert, uuid.NewString(), eventID, name, normalized))
	if err != nil {
		return nil, false, err
	}
	if g != nil {
		return g, true, nil
	}

	// Lost a concurrent insert race; the winner's row is authoritative.
	g, err = scanGuest(r.pool.QueryRow(ctx, lookup, eventID, normalized))
	if err != nil {
		return nil, false, err
	}
	return g, false, nil
}

func (r *guestRepository) GetByID(ctx context.Context, id, eventID string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanGuest(r.pool.QueryRow(ctx, q, id, eventID))
}

func (r *guestRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE event_id=$1 ORDER BY name ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []domain.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, *g)
	}
	return guests, rows.Err()
}

func (r *guestRepository) UpdateRSVP(ctx context.Context, id, eventID string, status domain.RSVPStatus, menuChoice *string, at time.Time) (bool, error) {
	const q = `UPDATE guests SET
		rsvp_status=$3,
		rsvp_at=$4,
		menu_choice=COALESCE($5, menu_choice),
		updated_at=now()
	WHERE id=$1 AND event_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, status, at, menuChoice)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *guestRepository) UpdateMenuChoice(ctx context.Context, id, eventID string, menuChoice *string) (bool, error) {
	const q = `UPDATE guests SET menu_choice=$3, updated_at=now() WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, menuChoice)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *guestRepository) MarkSeenUpdate(ctx context.Context, id, eventID string, at time.Time) (bool, error) {
	const q = `UPDATE guests SET last_seen_update_at=$3, updated_at=now() WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *guestRepository) CreateByHost(ctx context.Context, eventID, name string, email *string) (*domain.Guest, error) {
	const q = `INSERT INTO guests (id, event_id, name, normalized_name, email, rsvp_status)
	VALUES ($1,$2,$3,$4,$5,'pending')
	RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanGuest(r.pool.QueryRow(ctx, q,
		uuid.NewString(), eventID, name, domain.NormalizeGuestName(name), email,
	))
}

func (r *guestRepository) UpdateByHost(ctx context.Context, id, eventID, name string, email *string) (bool, error) {
	const q = `UPDATE guests SET name=$3, normalized_name=$4, email=$5, updated_at=now()
	WHERE id=$1 AND event_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID, name, domain.NormalizeGuestName(name), email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *guestRepository) Delete(ctx context.Context, id, eventID string) (bool, error) {
	const q = `DELETE FROM guests WHERE id=$1 AND event_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
