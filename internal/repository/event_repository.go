package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sventena/guestlist/internal/domain"
)

type CreateEventParams struct {
	HostID    string
	HostEmail string
	Slug      string
	Title     string
	EventDate time.Time
	Tier      int
}

type EventRepository interface {
	Create(ctx context.Context, p CreateEventParams) (*domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Event, error)
	CountSlug(ctx context.Context, baseSlug string) (int, error)

	// MarkPaid applies the Draft→Paid transition; the WHERE state='draft'
	// guard makes duplicate webhook deliveries no-ops at the row level.
	MarkPaid(ctx context.Context, id, sessionID string, paidAt time.Time, storageExpiresAt, storageGraceUntil *time.Time) (bool, error)
	// Activate applies Paid→Active for the owning host.
	Activate(ctx context.Context, id, hostID string) (bool, error)
	// RenewStorage resets the storage window unless the renewal session was
	// already applied.
	RenewStorage(ctx context.Context, id, sessionID string, expiresAt, graceUntil time.Time) (bool, error)
	UpdatePostEventSettings(ctx context.Context, id, hostID string, postEventEnabled, guestPhotoUploadEnabled bool) (bool, error)
	UpdateGuestAccess(ctx context.Context, id, hostID string, enabled bool) (bool, error)
	SetRSVPDeadline(ctx context.Context, id, hostID string, deadline *time.Time, criticalAt time.Time) (bool, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `id, host_id, host_email, slug, title, event_date, state, tier,
guest_access_enabled, menu_enabled, rsvp_deadline,
post_event_enabled, guest_photo_upload_enabled, storage_expires_at, storage_grace_until,
stripe_session_id, storage_renewal_session_id, last_critical_update_at, paid_at,
created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.HostID, &e.HostEmail, &e.Slug, &e.Title, &e.EventDate, &e.State, &e.Tier,
		&e.GuestAccessEnabled, &e.MenuEnabled, &e.RSVPDeadline,
		&e.PostEventEnabled, &e.GuestPhotoUploadEnabled, &e.StorageExpiresAt, &e.StorageGraceUntil,
		&e.StripeSessionID, &e.StorageRenewalSessionID, &e.LastCriticalUpdateAt, &e.PaidAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, p CreateEventParams) (*domain.Event, error) {
	const q = `INSERT INTO events (
		id, host_id, host_email, slug, title, event_date, state, tier,
		guest_access_enabled, menu_enabled, post_event_enabled, guest_photo_upload_enabled
	) VALUES ($1,$2,$3,$4,$5,$6,'draft',$7,false,false,false,false)
	RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanEvent(r.pool.QueryRow(ctx, q,
		uuid.NewString(), p.HostID, p.HostEmail, p.Slug, p.Title, p.EventDate, p.Tier,
	))
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

func (r *eventRepository) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE slug=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanEvent(r.pool.QueryRow(ctx, q, slug))
}

func (r *eventRepository) ListByHost(ctx context.Context, hostID string) ([]domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE host_id=$1 ORDER BY created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *eventRepository) CountSlug(ctx context.Context, baseSlug string) (int, error) {
	const q = `SELECT count(*) FROM events WHERE slug = $1 OR slug LIKE $1 || '-%'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	if err := r.pool.QueryRow(ctx, q, baseSlug).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *eventRepository) MarkPaid(ctx context.Context, id, sessionID string, paidAt time.Time, storageExpiresAt, storageGraceUntil *time.Time) (bool, error) {
	const q = `UPDATE events SET
		state='paid',
		paid_at=$3,
		stripe_session_id=$2,
		storage_expires_at=$4,
		storage_grace_until=$5,
		updated_at=now()
	WHERE id=$1 AND state='draft'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, sessionID, paidAt, storageExpiresAt, storageGraceUntil)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) Activate(ctx context.Context, id, hostID string) (bool, error) {
	const q = `UPDATE events SET state='active', guest_access_enabled=true, updated_at=now()
	WHERE id=$1 AND host_id=$2 AND state='paid'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, hostID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) RenewStorage(ctx context.Context, id, sessionID string, expiresAt, graceUntil time.Time) (bool, error) {
	const q = `UPDATE events SET
		storage_expires_at=$3,
		storage_grace_until=$4,
		storage_renewal_session_id=$2,
		updated_at=now()
	WHERE id=$1 AND tier >= 3
	  AND (storage_renewal_session_id IS NULL OR storage_renewal_session_id <> $2)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, sessionID, expiresAt, graceUntil)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) UpdatePostEventSettings(ctx context.Context, id, hostID string, postEventEnabled, guestPhotoUploadEnabled bool) (bool, error) {
	const q = `UPDATE events SET
		post_event_enabled=$3,
		guest_photo_upload_enabled=$4,
		updated_at=now()
	WHERE id=$1 AND host_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, hostID, postEventEnabled, guestPhotoUploadEnabled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) UpdateGuestAccess(ctx context.Context, id, hostID string, enabled bool) (bool, error) {
	const q = `UPDATE events SET guest_access_enabled=$3, updated_at=now()
	WHERE id=$1 AND host_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, hostID, enabled)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *eventRepository) SetRSVPDeadline(ctx context.Context, id, hostID string, deadline *time.Time, criticalAt time.Time) (bool, error) {
	const q = `UPDATE events SET rsvp_deadline=$3, last_critical_update_at=$4, updated_at=now()
	WHERE id=$1 AND host_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, hostID, deadline, criticalAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
