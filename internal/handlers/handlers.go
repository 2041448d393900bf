package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/service"
	"github.com/sventena/guestlist/pkg/auth"
	"github.com/sventena/guestlist/pkg/config"
	"github.com/sventena/guestlist/pkg/logger"
)

type Handlers struct {
	verification service.VerificationService
	guests       service.GuestService
	rsvps        service.RSVPService
	events       service.EventService
	photos       service.PhotoService
	payments     service.PaymentService
	config       *config.Config
}

func New(
	verification service.VerificationService,
	guests service.GuestService,
	rsvps service.RSVPService,
	events service.EventService,
	photos service.PhotoService,
	payments service.PaymentService,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		verification: verification,
		guests:       guests,
		rsvps:        rsvps,
		events:       events,
		photos:       photos,
		payments:     payments,
		config:       cfg,
	}
}

type ctxKey string

const (
	hostClaimsKey  ctxKey = "host_claims"
	guestClaimsKey ctxKey = "guest_claims"
)

// RequireHostJWT guards host-facing endpoints. Tokens are issued by the
// identity provider; the API only verifies them.
func (h *Handlers) RequireHostJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, domain.CodeForbidden, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseHost(token, h.config.Auth.JWTSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, domain.CodeForbidden, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), logger.HostIDKey, claims.HostID)
		ctx = context.WithValue(ctx, hostClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalGuestRecord attaches a guest verification record to the request
// context when a valid one is presented. Endpoints decide whether a record
// is required.
func (h *Handlers) OptionalGuestRecord(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Guest-Session")
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if token != "" {
			eventID := pathEventID(r)
			if claims, err := h.verification.CheckRecord(token, eventID); err == nil {
				ctx := context.WithValue(r.Context(), guestClaimsKey, claims)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func getHostClaims(r *http.Request) *auth.HostClaims {
	if claims, ok := r.Context().Value(hostClaimsKey).(*auth.HostClaims); ok {
		return claims
	}
	return nil
}

func getGuestClaims(r *http.Request) *auth.GuestClaims {
	if claims, ok := r.Context().Value(guestClaimsKey).(*auth.GuestClaims); ok {
		return claims
	}
	return nil
}

// sessionKey identifies the caller's client session for the verification
// attempt counter. A fresh session starts a fresh counter.
func sessionKey(r *http.Request) string {
	if key := r.Header.Get("X-Client-Session"); key != "" {
		return key
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{"error": code, "message": message})
}

// writeServiceError maps tagged service errors to HTTP responses. Untagged
// errors become opaque 500s.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.ErrorContext(r.Context(), "Unhandled service error", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, domain.CodeUnknown, "Internal error")
		return
	}

	status := http.StatusBadRequest
	switch de.Code {
	case domain.CodeNotVerified, domain.CodeVerificationFailed:
		status = http.StatusUnauthorized
	case domain.CodeTooManyAttempts:
		status = http.StatusTooManyRequests
	case domain.CodeForbidden, domain.CodeEventNotActive, domain.CodeGuestAccessDisabled,
		domain.CodeRSVPDeadlinePassed, domain.CodeTier3Required, domain.CodePostEventDisabled,
		domain.CodePostEventNotAllowed, domain.CodeUploadDisabled, domain.CodeStorageExpired:
		status = http.StatusForbidden
	case domain.CodeEventNotFound, domain.CodeEventNotVisible, domain.CodeGuestNotFound,
		domain.CodePhotoNotFound, domain.CodeMenuUnknown:
		status = http.StatusNotFound
	case domain.CodeInvalidState:
		status = http.StatusConflict
	case domain.CodeUnknown:
		status = http.StatusInternalServerError
	}
	writeError(w, status, de.Code, de.Detail)
}
