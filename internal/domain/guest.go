package domain

import (
	"strings"
	"time"
)

type RSVPStatus string

const (
	RSVPPending RSVPStatus = "pending"
	RSVPYes     RSVPStatus = "yes"
	RSVPNo      RSVPStatus = "no"
)

// ParseRSVPStatus accepts only statuses a guest may submit.
func ParseRSVPStatus(s string) (RSVPStatus, bool) {
	switch RSVPStatus(s) {
	case RSVPYes, RSVPNo:
		return RSVPStatus(s), true
	default:
		return "", false
	}
}

type Guest struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	Name           string     `json:"name"`
	NormalizedName string     `json:"-"`
	Email          *string    `json:"email,omitempty"`
	RSVPStatus     RSVPStatus `json:"rsvp_status"`
	RSVPAt         *time.Time `json:"rsvp_at,omitempty"`
	MenuChoice     *string    `json:"menu_choice,omitempty"`

	// Tracks whether the guest has seen the event's last_critical_update_at.
	LastSeenUpdateAt *time.Time `json:"last_seen_update_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeGuestName produces the per-event uniqueness key for a display name.
func NormalizeGuestName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
