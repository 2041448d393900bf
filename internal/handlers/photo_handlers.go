package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sventena/guestlist/internal/domain"
)

// ListPhotos serves the gallery for a verified guest, honoring the
// pre/post-event window rules.
func (h *Handlers) ListPhotos(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)

	gallery, err := h.photos.List(r.Context(), eventID, getGuestClaims(r) != nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gallery)
}

type uploadPhotoRequest struct {
	// Data is a base64 data URL or bare base64 payload.
	Data string `json:"data"`
}

// UploadPhoto accepts a guest photo upload during the post-event window.
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	eventID := pathEventID(r)

	var req uploadPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "Invalid JSON format")
		return
	}

	photo, err := h.photos.Upload(r.Context(), eventID, req.Data, getGuestClaims(r) != nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// DeletePhoto soft-deletes a photo on behalf of the owning host.
func (h *Handlers) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	claims := getHostClaims(r)
	if claims == nil {
		writeError(w, http.StatusUnauthorized, domain.CodeForbidden, "Authentication required")
		return
	}

	err := h.photos.Delete(r.Context(), pathEventID(r), claims.HostID, chi.URLParam(r, "photoID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
