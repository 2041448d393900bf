package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
)

type GuestService interface {
	// Resolve maps a verified display name to a stable guest id for an
	// event, creating the guest on first resolution. Idempotent.
	Resolve(ctx context.Context, eventID, name string) (*domain.Guest, error)
	Get(ctx context.Context, eventID, guestID string) (*domain.Guest, error)
	// AcknowledgeUpdate records that a guest has seen the event's latest
	// critical update.
	AcknowledgeUpdate(ctx context.Context, eventID, guestID string) error

	// Host-side guest management, ownership-checked.
	ListForHost(ctx context.Context, eventID, hostID string) ([]domain.Guest, error)
	CreateByHost(ctx context.Context, eventID, hostID, name string, email *string) (*domain.Guest, error)
	UpdateByHost(ctx context.Context, eventID, hostID, guestID, name string, email *string) (*domain.Guest, error)
	DeleteByHost(ctx context.Context, eventID, hostID, guestID string) error
}

type guestService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	eventBus  events.EventBus
	now       func() time.Time
}

func NewGuestService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	eventBus events.EventBus,
) GuestService {
	return &guestService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		eventBus:  eventBus,
		now:       time.Now,
	}
}

func (s *guestService) Resolve(ctx context.Context, eventID, name string) (*domain.Guest, error) {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < domain.MinGuestNameLen || len([]rune(trimmed)) > domain.MaxGuestNameLen {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}

	guest, created, err := s.guestRepo.Resolve(ctx, eventID, trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve guest: %w", err)
	}
	if guest == nil {
		return nil, domain.NewError(domain.CodeGuestNotFound)
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

	return guest, nil
}

func (s *guestService) Get(ctx context.Context, eventID, guestID string) (*domain.Guest, error) {
	guest, err := s.guestRepo.GetByID(ctx, guestID, eventID)
	if err != nil {
		return nil, fmt.Errorf("load guest: %w", err)
	}
	if guest == nil {
		return nil, domain.NewError(domain.CodeGuestNotFound)
	}
	return guest, nil
}

func (s *guestService) AcknowledgeUpdate(ctx context.Context, eventID, guestID string) error {
	ok, err := s.guestRepo.MarkSeenUpdate(ctx, guestID, eventID, s.now())
	if err != nil {
		return fmt.Errorf("mark seen update: %w", err)
	}
	if !ok {
		return domain.NewError(domain.CodeGuestNotFound)
	}
	return nil
}

func (s *guestService) hostEvent(ctx context.Context, eventID, hostID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	if event.HostID != hostID {
		return nil, domain.NewError(domain.CodeForbidden)
	}
	return event, nil
}

func (s *guestService) ListForHost(ctx context.Context, eventID, hostID string) ([]domain.Guest, error) {
	if _, err := s.hostEvent(ctx, eventID, hostID); err != nil {
		return nil, err
	}
	return s.guestRepo.ListByEvent(ctx, eventID)
}

func (s *guestService) CreateByHost(ctx context.Context, eventID, hostID, name string, email *string) (*domain.Guest, error) {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < domain.MinGuestNameLen || len([]rune(trimmed)) > domain.MaxGuestNameLen {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}
	if _, err := s.hostEvent(ctx, eventID, hostID); err != nil {
		return nil, err
	}
	return s.guestRepo.CreateByHost(ctx, eventID, trimmed, email)
}

func (s *guestService) UpdateByHost(ctx context.Context, eventID, hostID, guestID, name string, email *string) (*domain.Guest, error) {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < domain.MinGuestNameLen || len([]rune(trimmed)) > domain.MaxGuestNameLen {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}
	if _, err := s.hostEvent(ctx, eventID, hostID); err != nil {
		return nil, err
	}
	ok, err := s.guestRepo.UpdateByHost(ctx, guestID, eventID, trimmed, email)
	if err != nil {
		return nil, fmt.Errorf("update guest: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeGuestNotFound)
	}
	return s.guestRepo.GetByID(ctx, guestID, eventID)
}

func (s *guestService) DeleteByHost(ctx context.Context, eventID, hostID, guestID string) error {
	if _, err := s.hostEvent(ctx, eventID, hostID); err != nil {
		return err
	}
	ok, err := s.guestRepo.Delete(ctx, guestID, eventID)
	if err != nil {
		return fmt.Errorf("delete guest: %w", err)
	}
	if !ok {
		return domain.NewError(domain.CodeGuestNotFound)
	}
	return nil
}
