package domain

import "time"

// RSVPDecision is the outcome of the guest RSVP eligibility check.
type RSVPDecision string

const (
	RSVPAllowed             RSVPDecision = "allowed"
	RSVPEventNotActive      RSVPDecision = "event_not_active"
	RSVPGuestAccessDisabled RSVPDecision = "guest_access_disabled"
	RSVPClosed              RSVPDecision = "rsvp_closed"
)

// CanGuestView reports whether the guest-facing surface of an event is
// reachable at all.
func CanGuestView(e *Event) bool {
	return e.State == EventActive && e.GuestAccessEnabled
}

// CanGuestRSVP evaluates the checks in priority order: state first, then
// access toggle, then deadline. Only the first failing check is reported.
func CanGuestRSVP(e *Event, now time.Time) RSVPDecision {
	if e.State != EventActive {
		return RSVPEventNotActive
	}
	if !e.GuestAccessEnabled {
		return RSVPGuestAccessDisabled
	}
	if e.RSVPDeadline != nil && now.After(*e.RSVPDeadline) {
		return RSVPClosed
	}
	return RSVPAllowed
}

// CanGuestEditMenu gates a guest's menu choice on event state, the menu
// toggle, and the shared RSVP deadline.
func CanGuestEditMenu(e *Event, now time.Time) bool {
	if e.State != EventActive || !e.MenuEnabled {
		return false
	}
	if e.RSVPDeadline != nil && now.After(*e.RSVPDeadline) {
		return false
	}
	return true
}

// CanHostEditMenu is deadline-gated but not state-gated: hosts prepare menus
// before the event goes active.
func CanHostEditMenu(e *Event, now time.Time) bool {
	if e.RSVPDeadline != nil && now.After(*e.RSVPDeadline) {
		return false
	}
	return true
}

// PostEventDelay is how long after the event date the gallery switches into
// post-event mode.
const PostEventDelay = 12 * time.Hour

func PostEventStartsAt(e *Event) time.Time {
	return e.EventDate.Add(PostEventDelay)
}

// GalleryWindow is the photo-gallery availability state.
type GalleryWindow string

const (
	// GalleryPreEvent: ordinary guest-access rules apply.
	GalleryPreEvent GalleryWindow = "pre_event"
	// GalleryOpen: post-event mode, grace window still open.
	GalleryOpen GalleryWindow = "open"
	// GalleryExpired: post-event mode, grace passed or never set.
	GalleryExpired GalleryWindow = "expired"
	// GalleryUnavailable: post-event window reached but the event never
	// unlocked post-event mode.
	GalleryUnavailable GalleryWindow = "unavailable"
)

// GalleryWindowAt computes the storage-lifecycle state of an event's photo
// gallery at a given instant.
func GalleryWindowAt(e *Event, now time.Time) GalleryWindow {
	if now.Before(PostEventStartsAt(e)) {
		return GalleryPreEvent
	}
	if e.Tier < TierPremium || !e.PostEventEnabled {
		return GalleryUnavailable
	}
	if e.StorageGraceUntil != nil && now.Before(*e.StorageGraceUntil) {
		return GalleryOpen
	}
	return GalleryExpired
}
