package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/mailer"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
)

type SubmitRSVPInput struct {
	EventID    string
	GuestID    string
	Status     domain.RSVPStatus
	MenuChoice *string
	// Verified is the caller's assertion that a valid verification record
	// was presented for this event.
	Verified bool
}

type RSVPService interface {
	Submit(ctx context.Context, in SubmitRSVPInput) (*domain.Guest, error)
	// UpdateMenuChoice changes only the menu selection, gated by the guest
	// menu-edit rules.
	UpdateMenuChoice(ctx context.Context, eventID, guestID, menuID string, verified bool) (*domain.Guest, error)
}

type rsvpService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	menuRepo  repository.MenuRepository
	eventBus  events.EventBus
	mail      mailer.Service
	now       func() time.Time
}

func NewRSVPService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	menuRepo repository.MenuRepository,
	eventBus events.EventBus,
	mail mailer.Service,
) RSVPService {
	return &rsvpService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		menuRepo:  menuRepo,
		eventBus:  eventBus,
		mail:      mail,
		now:       time.Now,
	}
}

func (s *rsvpService) Submit(ctx context.Context, in SubmitRSVPInput) (*domain.Guest, error) {
	if !in.Verified {
		return nil, domain.NewError(domain.CodeNotVerified)
	}

	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeUnknown)
	}

	// Eligibility is evaluated against freshly read state right before the
	// write; the small window between check and write is accepted.
	switch domain.CanGuestRSVP(event, s.now()) {
	case domain.RSVPEventNotActive:
		return nil, domain.NewError(domain.CodeEventNotActive)
	case domain.RSVPGuestAccessDisabled:
		return nil, domain.NewError(domain.CodeGuestAccessDisabled)
	case domain.RSVPClosed:
		return nil, domain.NewError(domain.CodeRSVPDeadlinePassed)
	}

	// Menu choice is mandatory only for attending guests of menu-enabled
	// events; a "no" may still carry one and it is persisted.
	if event.MenuEnabled && in.Status == domain.RSVPYes && in.MenuChoice == nil {
		return nil, domain.NewError(domain.CodeMenuRequired)
	}

	var menuTitle string
	if in.MenuChoice != nil {
		option, err := s.menuRepo.GetByID(ctx, *in.MenuChoice, in.EventID)
		if err != nil {
			return nil, fmt.Errorf("load menu option: %w", err)
		}
		if option == nil {
			return nil, domain.NewError(domain.CodeMenuUnknown)
		}
		menuTitle = option.Title
	}

	rsvpAt := s.now()
	ok, err := s.guestRepo.UpdateRSVP(ctx, in.GuestID, in.EventID, in.Status, in.MenuChoice, rsvpAt)
	if err != nil {
		return nil, fmt.Errorf("update rsvp: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeGuestNotFound)
	}

	guest, err := s.guestRepo.GetByID(ctx, in.GuestID, in.EventID)
	if err != nil {
		return nil, fmt.Errorf("reload guest: %w", err)
	}

	evt := events.RSVPSubmittedEvent{
		GuestID:    in.GuestID,
		EventID:    in.EventID,
		RSVPStatus: string(in.Status),
		RSVPAt:     rsvpAt,
	}
	if in.MenuChoice != nil {
		evt.MenuChoice = *in.MenuChoice
	}
	if err := s.eventBus.Publish(ctx, events.RSVPSubmitted, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish rsvp submitted event", "error", err, "guest_id", in.GuestID)
	}

	if event.HostEmail != "" && guest != nil {
		if err := s.mail.SendRSVPNotification(event.HostEmail, event.Title, guest.Name, string(in.Status), menuTitle); err != nil {
			logger.ErrorContext(ctx, "Failed to send RSVP notification", "error", err, "event_id", in.EventID)
		}
	}

	return guest, nil
}

func (s *rsvpService) UpdateMenuChoice(ctx context.Context, eventID, guestID, menuID string, verified bool) (*domain.Guest, error) {
	if !verified {
		return nil, domain.NewError(domain.CodeNotVerified)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeUnknown)
	}

	if !domain.CanGuestEditMenu(event, s.now()) {
		return nil, domain.NewError(domain.CodeRSVPDeadlinePassed)
	}

	option, err := s.menuRepo.GetByID(ctx, menuID, eventID)
	if err != nil {
		return nil, fmt.Errorf("load menu option: %w", err)
	}
	if option == nil {
		return nil, domain.NewError(domain.CodeMenuUnknown)
	}

	ok, err := s.guestRepo.UpdateMenuChoice(ctx, guestID, eventID, &menuID)
	if err != nil {
		return nil, fmt.Errorf("update menu choice: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeGuestNotFound)
	}

	return s.guestRepo.GetByID(ctx, guestID, eventID)
}
