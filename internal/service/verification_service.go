package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/auth"
	"github.com/sventena/guestlist/pkg/config"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
)

// VerifyOutcome is the result of a successful guest verification: a resolved
// guest identity plus the client-held verification record token.
type VerifyOutcome struct {
	Guest     *domain.Guest
	Name      string
	Token     string
	ExpiresIn int64
}

type VerificationService interface {
	// Verify checks the shared phrase for an event and, on success, resolves
	// the guest identity and issues the verification record. sessionKey
	// scopes the attempt counter to the caller's client session.
	Verify(ctx context.Context, eventID, sessionKey, name, phrase string) (*VerifyOutcome, error)
	// CheckRecord validates a client-held verification record for an event.
	// Expired or mismatched records are treated as absent.
	CheckRecord(token, eventID string) (*auth.GuestClaims, error)
}

type verificationService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	attempts  repository.AttemptStore
	eventBus  events.EventBus
	config    *config.Config
	now       func() time.Time
}

func NewVerificationService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	attempts repository.AttemptStore,
	eventBus events.EventBus,
	config *config.Config,
) VerificationService {
	return &verificationService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		attempts:  attempts,
		eventBus:  eventBus,
		config:    config,
		now:       time.Now,
	}
}

func (s *verificationService) Verify(ctx context.Context, eventID, sessionKey, name, phrase string) (*VerifyOutcome, error) {
	// Lockout is checked before the phrase is ever evaluated.
	count, err := s.attempts.Get(ctx, eventID, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("read attempt counter: %w", err)
	}
	if domain.IsLockedOut(count) {
		return nil, domain.NewError(domain.CodeTooManyAttempts)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	if !domain.CanGuestView(event) {
		return nil, domain.NewError(domain.CodeEventNotVisible)
	}

	expected := domain.BuildVerificationPhrase(event.Slug)
	result := domain.ValidateVerification(name, phrase, expected)
	if !result.OK {
		if _, err := s.attempts.Increment(ctx, eventID, sessionKey); err != nil {
			logger.ErrorContext(ctx, "Failed to increment attempt counter", "error", err, "event_id", eventID)
		}
		// Single undifferentiated failure signal: the guest cannot tell a
		// bad name from a bad phrase.
		return nil, domain.NewError(domain.CodeVerificationFailed)
	}

	if err := s.attempts.Clear(ctx, eventID, sessionKey); err != nil {
		logger.ErrorContext(ctx, "Failed to clear attempt counter", "error", err, "event_id", eventID)
	}

	guest, created, err := s.guestRepo.Resolve(ctx, eventID, result.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve guest: %w", err)
	}
	if guest == nil {
		return nil, domain.NewError(domain.CodeGuestNotFound)
	}

	verifiedAt := s.now()
	ttl := s.config.Auth.GuestSessionTTL
	token, err := auth.NewGuestVerification(eventID, result.Name, s.config.Auth.JWTSecret, verifiedAt, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue verification record: %w", err)
	}

	if created {
		if err := s.eventBus.Publish(ctx, events.GuestCreated, events.GuestCreatedEvent{
			GuestID:   guest.ID,
			EventID:   eventID,
			Name:      guest.Name,
			CreatedAt: guest.CreatedAt,
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish guest created event", "error", err, "guest_id", guest.ID)
		}
	}

	if err := s.eventBus.Publish(ctx, events.GuestVerified, events.GuestVerifiedEvent{
		EventID:    eventID,
		Name:       result.Name,
		VerifiedAt: verifiedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest verified event", "error", err, "event_id", eventID)
	}

	return &VerifyOutcome{
		Guest:     guest,
		Name:      result.Name,
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}

func (s *verificationService) CheckRecord(token, eventID string) (*auth.GuestClaims, error) {
	claims, err := auth.ParseGuest(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.NewError(domain.CodeNotVerified)
	}
	if claims.EventID != eventID {
		return nil, domain.NewError(domain.CodeNotVerified)
	}
	if domain.IsVerificationExpired(time.Unix(claims.VerifiedAt, 0), s.now()) {
		return nil, domain.NewError(domain.CodeNotVerified)
	}
	return claims, nil
}
