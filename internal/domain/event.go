package domain

import "time"

type EventState string

const (
	EventDraft    EventState = "draft"
	EventPaid     EventState = "paid"
	EventActive   EventState = "active"
	EventPassed   EventState = "event_passed"
	EventArchived EventState = "archived"
	EventExpired  EventState = "expired"
)

func ParseEventState(s string) (EventState, bool) {
	switch EventState(s) {
	case EventDraft, EventPaid, EventActive, EventPassed, EventArchived, EventExpired:
		return EventState(s), true
	default:
		return "", false
	}
}

// stateOrder defines the forward-only lifecycle. Expired sits last so it is
// reachable from any earlier state via storage expiry.
var stateOrder = map[EventState]int{
	EventDraft:    0,
	EventPaid:     1,
	EventActive:   2,
	EventPassed:   3,
	EventArchived: 4,
	EventExpired:  5,
}

func (s EventState) CanTransitionTo(next EventState) bool {
	from, okFrom := stateOrder[s]
	to, okTo := stateOrder[next]
	return okFrom && okTo && to > from
}

// Service tiers. Tier 3 unlocks the post-event gallery and storage renewal.
const (
	TierBasic    = 1
	TierStandard = 2
	TierPremium  = 3
)

type Event struct {
	ID        string     `json:"id"`
	HostID    string     `json:"host_id"`
	HostEmail string     `json:"host_email"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	EventDate time.Time  `json:"event_date"`
	State     EventState `json:"state"`
	Tier      int        `json:"tier"`

	GuestAccessEnabled bool       `json:"guest_access_enabled"`
	MenuEnabled        bool       `json:"menu_enabled"`
	RSVPDeadline       *time.Time `json:"rsvp_deadline,omitempty"`

	// Tier 3 only; meaningless otherwise.
	PostEventEnabled        bool       `json:"post_event_enabled"`
	GuestPhotoUploadEnabled bool       `json:"guest_photo_upload_enabled"`
	StorageExpiresAt        *time.Time `json:"storage_expires_at,omitempty"`
	StorageGraceUntil       *time.Time `json:"storage_grace_until,omitempty"`

	StripeSessionID         *string    `json:"-"`
	StorageRenewalSessionID *string    `json:"-"`
	LastCriticalUpdateAt    *time.Time `json:"last_critical_update_at,omitempty"`
	PaidAt                  *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MenuOption struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewEventInput struct {
	Title     string    `json:"title"`
	EventDate time.Time `json:"event_date"`
	Tier      int       `json:"tier"`
	HostEmail string    `json:"host_email"`
}
