package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/pkg/logger"
)

// CreateEvent creates a draft event for the authenticated host.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req domain.NewEventInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}
	if req.HostEmail == "" {
		req.HostEmail = claims.Email
	}

	event, err := h.events.Create(r.Context(), claims.HostID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents returns all events owned by the authenticated host.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	events, err := h.events.ListByHost(r.Context(), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// GetHostEvent returns a single owned event with full host-visible detail.
func (h *Handlers) GetHostEvent(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	event, err := h.events.GetByID(r.Context(), pathEventID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if event.HostID != claims.HostID {
		writeError(w, http.StatusForbidden, domain.CodeForbidden, "")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ActivateEvent applies the paid to active transition and opens guest access.
func (h *Handlers) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	event, err := h.events.Activate(r.Context(), pathEventID(r), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type rsvpDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// SetRSVPDeadline sets or clears the shared RSVP deadline. Counts as a
// critical update guests are asked to acknowledge.
func (h *Handlers) SetRSVPDeadline(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req rsvpDeadlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	event, err := h.events.SetRSVPDeadline(r.Context(), pathEventID(r), claims.HostID, req.Deadline)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type guestAccessRequest struct {
	Enabled bool `json:"enabled"`
}

// UpdateGuestAccess toggles the guest-facing surface of an event.
func (h *Handlers) UpdateGuestAccess(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req guestAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	event, err := h.events.UpdateGuestAccess(r.Context(), pathEventID(r), claims.HostID, req.Enabled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type postEventSettingsRequest struct {
	PostEventEnabled        bool `json:"post_event_enabled"`
	GuestPhotoUploadEnabled bool `json:"guest_photo_upload_enabled"`
}

// UpdatePostEventSettings configures the tier 3 post-event gallery.
func (h *Handlers) UpdatePostEventSettings(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req postEventSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	event, err := h.events.UpdatePostEventSettings(r.Context(), pathEventID(r), claims.HostID, req.PostEventEnabled, req.GuestPhotoUploadEnabled)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListMenu returns the menu options for an owned event.
func (h *Handlers) ListMenu(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	event, err := h.events.GetByID(r.Context(), pathEventID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if event.HostID != claims.HostID {
		writeError(w, http.StatusForbidden, domain.CodeForbidden, "")
		return
	}

	menu, err := h.events.ListMenu(r.Context(), event.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

type menuOptionRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Position    int     `json:"position"`
}

func (h *Handlers) CreateMenuOption(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req menuOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	option, err := h.events.CreateMenuOption(r.Context(), pathEventID(r), claims.HostID, req.Title, req.Description, req.Position)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, option)
}

func (h *Handlers) UpdateMenuOption(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req menuOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	err := h.events.UpdateMenuOption(r.Context(), pathEventID(r), claims.HostID, chi.URLParam(r, "menuID"), req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handlers) DeleteMenuOption(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	err := h.events.DeleteMenuOption(r.Context(), pathEventID(r), claims.HostID, chi.URLParam(r, "menuID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListGuests returns the full guest list for an owned event.
func (h *Handlers) ListGuests(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	guests, err := h.guests.ListForHost(r.Context(), pathEventID(r), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guests)
}

type hostGuestRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
}

func (h *Handlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req hostGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	guest, err := h.guests.CreateByHost(r.Context(), pathEventID(r), claims.HostID, req.Name, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, guest)
}

func (h *Handlers) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	var req hostGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	guest, err := h.guests.UpdateByHost(r.Context(), pathEventID(r), claims.HostID, chi.URLParam(r, "guestID"), req.Name, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

func (h *Handlers) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	if err := h.guests.DeleteByHost(r.Context(), pathEventID(r), claims.HostID, chi.URLParam(r, "guestID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ExportGuestsCSV streams the guest list as CSV.
func (h *Handlers) ExportGuestsCSV(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	data, err := h.events.ExportGuestsCSV(r.Context(), pathEventID(r), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="guests.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// CreateCheckout starts a tier purchase and returns the hosted payment URL.
func (h *Handlers) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	url, err := h.payments.CreateCheckout(r.Context(), pathEventID(r), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

// CreateStorageRenewalCheckout starts a storage-window renewal purchase.
func (h *Handlers) CreateStorageRenewalCheckout(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)

	url, err := h.payments.CreateStorageRenewalCheckout(r.Context(), pathEventID(r), claims.HostID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"checkout_url": url})
}

// StripeWebhook applies checkout completion deliveries. Must always return
// 2xx for handled deliveries so the provider stops retrying.
func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Failed to read body")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		if domain.IsCode(err, domain.CodeInvalidInput) {
			writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid signature")
			return
		}
		logger.ErrorContext(r.Context(), "Webhook processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, domain.CodeUnknown, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
