package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/service"
)

func pathEventID(r *http.Request) string {
	return chi.URLParam(r, "eventID")
}

// guestEventDTO is the guest-visible projection of an event. Host-only
// fields (payment sessions, host id) stay out.
type guestEventDTO struct {
	ID                      string              `json:"id"`
	Slug                    string              `json:"slug"`
	Title                   string              `json:"title"`
	EventDate               time.Time           `json:"event_date"`
	MenuEnabled             bool                `json:"menu_enabled"`
	RSVPDeadline            *time.Time          `json:"rsvp_deadline,omitempty"`
	RSVPOpen                bool                `json:"rsvp_open"`
	PostEventMode           bool                `json:"post_event_mode"`
	GuestPhotoUploadEnabled bool                `json:"guest_photo_upload_enabled"`
	Menu                    []domain.MenuOption `json:"menu,omitempty"`
}

func (h *Handlers) guestEventView(event *domain.Event, menu []domain.MenuOption) guestEventDTO {
	now := time.Now()
	return guestEventDTO{
		ID:                      event.ID,
		Slug:                    event.Slug,
		Title:                   event.Title,
		EventDate:               event.EventDate,
		MenuEnabled:             event.MenuEnabled,
		RSVPDeadline:            event.RSVPDeadline,
		RSVPOpen:                domain.CanGuestRSVP(event, now) == domain.RSVPAllowed,
		PostEventMode:           !now.Before(domain.PostEventStartsAt(event)),
		GuestPhotoUploadEnabled: event.GuestPhotoUploadEnabled,
		Menu:                    menu,
	}
}

// GetPublicEvent serves the guest landing view for an event slug.
func (h *Handlers) GetPublicEvent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	event, err := h.events.GetBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !domain.CanGuestView(event) {
		writeError(w, http.StatusNotFound, domain.CodeEventNotVisible, "")
		return
	}

	var menu []domain.MenuOption
	if event.MenuEnabled {
		menu, err = h.events.ListMenu(r.Context(), event.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.guestEventView(event, menu))
}

type verifyRequest struct {
	Name   string `json:"name"`
	Phrase string `json:"phrase"`
}

// VerifyGuest handles the name + shared phrase check and issues the
// verification record on success.
func (h *Handlers) VerifyGuest(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	outcome, err := h.verification.Verify(r.Context(), eventID, sessionKey(r), req.Name, req.Phrase)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guest_id":   outcome.Guest.ID,
		"name":       outcome.Name,
		"token":      outcome.Token,
		"expires_in": outcome.ExpiresIn,
	})
}

type resolveGuestRequest struct {
	Name string `json:"name"`
}

// ResolveGuest maps a display name to a stable guest id. Requires a valid
// verification record.
func (h *Handlers) ResolveGuest(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)
	if getGuestClaims(r) == nil {
		writeError(w, http.StatusUnauthorized, domain.CodeNotVerified, "")
		return
	}

	var req resolveGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	guest, err := h.guests.Resolve(r.Context(), eventID, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

// GetGuest returns a guest's own record, including RSVP state.
func (h *Handlers) GetGuest(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)
	if getGuestClaims(r) == nil {
		writeError(w, http.StatusUnauthorized, domain.CodeNotVerified, "")
		return
	}

	guest, err := h.guests.Get(r.Context(), eventID, chi.URLParam(r, "guestID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

type submitRSVPRequest struct {
	GuestID    string  `json:"guest_id"`
	Status     string  `json:"status"`
	MenuChoice *string `json:"menu_choice,omitempty"`
}

// SubmitRSVP records a guest's attendance answer. Resubmission overwrites
// the previous answer.
func (h *Handlers) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)

	var req submitRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	status, ok := domain.ParseRSVPStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid status")
		return
	}

	guest, err := h.rsvps.Submit(r.Context(), service.SubmitRSVPInput{
		EventID:    eventID,
		GuestID:    req.GuestID,
		Status:     status,
		MenuChoice: req.MenuChoice,
		Verified:   getGuestClaims(r) != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

type menuChoiceRequest struct {
	MenuID string `json:"menu_id"`
}

// UpdateMenuChoice changes only the menu selection for an existing RSVP.
func (h *Handlers) UpdateMenuChoice(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)

	var req menuChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	guest, err := h.rsvps.UpdateMenuChoice(r.Context(), eventID, chi.URLParam(r, "guestID"), req.MenuID, getGuestClaims(r) != nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

// AcknowledgeUpdate marks the event's latest critical update as seen by the
// guest.
func (h *Handlers) AcknowledgeUpdate(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)
	if getGuestClaims(r) == nil {
		writeError(w, http.StatusUnauthorized, domain.CodeNotVerified, "")
		return
	}

	if err := h.guests.AcknowledgeUpdate(r.Context(), eventID, chi.URLParam(r, "guestID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
