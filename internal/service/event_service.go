package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
)

type EventService interface {
	Create(ctx context.Context, hostID string, in domain.NewEventInput) (*domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Event, error)
	ListByHost(ctx context.Context, hostID string) ([]domain.Event, error)

	// MarkPaid applies a completed checkout. Replayed deliveries of the
	// same session are no-ops.
	MarkPaid(ctx context.Context, eventID, sessionID string) error
	Activate(ctx context.Context, eventID, hostID string) (*domain.Event, error)
	RenewStorage(ctx context.Context, eventID, sessionID string) error

	SetRSVPDeadline(ctx context.Context, eventID, hostID string, deadline *time.Time) (*domain.Event, error)
	UpdateGuestAccess(ctx context.Context, eventID, hostID string, enabled bool) (*domain.Event, error)
	UpdatePostEventSettings(ctx context.Context, eventID, hostID string, postEventEnabled, photoUploadEnabled bool) (*domain.Event, error)

	ListMenu(ctx context.Context, eventID string) ([]domain.MenuOption, error)
	CreateMenuOption(ctx context.Context, eventID, hostID, title string, description *string, position int) (*domain.MenuOption, error)
	UpdateMenuOption(ctx context.Context, eventID, hostID, menuID, title string, description *string) error
	DeleteMenuOption(ctx context.Context, eventID, hostID, menuID string) error

	ExportGuestsCSV(ctx context.Context, eventID, hostID string) ([]byte, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	menuRepo  repository.MenuRepository
	eventBus  events.EventBus
	now       func() time.Time
}

func NewEventService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	menuRepo repository.MenuRepository,
	eventBus events.EventBus,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		menuRepo:  menuRepo,
		eventBus:  eventBus,
		now:       time.Now,
	}
}

const (
	storageValidity = 365 * 24 * time.Hour
	storageGrace    = 30 * 24 * time.Hour
)

func (s *eventService) Create(ctx context.Context, hostID string, in domain.NewEventInput) (*domain.Event, error) {
	if in.Title == "" || in.EventDate.IsZero() {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}
	if in.Tier < domain.TierBasic || in.Tier > domain.TierPremium {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}

	base := domain.SlugifyTitle(in.Title)
	if base == "" {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}
	taken, err := s.eventRepo.CountSlug(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("count slug: %w", err)
	}

	event, err := s.eventRepo.Create(ctx, repository.CreateEventParams{
		HostID:    hostID,
		HostEmail: in.HostEmail,
		Slug:      domain.BuildUniqueSlug(base, taken),
		Title:     in.Title,
		EventDate: in.EventDate,
		Tier:      in.Tier,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	logger.InfoContext(ctx, "Event created", "event_id", event.ID, "slug", event.Slug, "tier", event.Tier)
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return event, nil
}

func (s *eventService) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return event, nil
}

func (s *eventService) ListByHost(ctx context.Context, hostID string) ([]domain.Event, error) {
	return s.eventRepo.ListByHost(ctx, hostID)
}

func (s *eventService) MarkPaid(ctx context.Context, eventID, sessionID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return domain.NewError(domain.CodeEventNotFound)
	}
	if event.State != domain.EventDraft {
		// Duplicate delivery of the session we already applied.
		if event.StripeSessionID != nil && *event.StripeSessionID == sessionID {
			return nil
		}
		return domain.NewError(domain.CodeInvalidState)
	}

	paidAt := s.now()
	var expiresAt, graceUntil *time.Time
	if event.Tier >= domain.TierPremium {
		// The storage window is anchored on the event date, not the
		// payment date.
		exp := event.EventDate.Add(storageValidity)
		grace := exp.Add(storageGrace)
		expiresAt, graceUntil = &exp, &grace
	}

	ok, err := s.eventRepo.MarkPaid(ctx, eventID, sessionID, paidAt, expiresAt, graceUntil)
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if !ok {
		// A concurrent delivery won the draft→paid race.
		return nil
	}

	if err := s.eventBus.Publish(ctx, events.EventPaid, events.EventPaidEvent{
		EventID:   eventID,
		Tier:      event.Tier,
		SessionID: sessionID,
		PaidAt:    paidAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event paid event", "error", err, "event_id", eventID)
	}
	return nil
}

func (s *eventService) Activate(ctx context.Context, eventID, hostID string) (*domain.Event, error) {
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
	if !event.State.CanTransitionTo(domain.EventActive) {
		return nil, domain.NewError(domain.CodeInvalidState)
	}

	ok, err := s.eventRepo.Activate(ctx, eventID, hostID)
	if err != nil {
		return nil, fmt.Errorf("activate event: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeInvalidState)
	}

	if err := s.eventBus.Publish(ctx, events.EventActivated, map[string]string{"event_id": eventID}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event activated event", "error", err, "event_id", eventID)
	}

	return s.eventRepo.GetByID(ctx, eventID)
}

func (s *eventService) RenewStorage(ctx context.Context, eventID, sessionID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return domain.NewError(domain.CodeEventNotFound)
	}
	if event.Tier < domain.TierPremium {
		return domain.NewError(domain.CodeTier3Required)
	}
	if event.StorageRenewalSessionID != nil && *event.StorageRenewalSessionID == sessionID {
		return nil
	}

	// Renewal starts a fresh window from now rather than extending the
	// original one.
	expiresAt := s.now().Add(storageValidity)
	graceUntil := expiresAt.Add(storageGrace)

	ok, err := s.eventRepo.RenewStorage(ctx, eventID, sessionID, expiresAt, graceUntil)
	if err != nil {
		return fmt.Errorf("renew storage: %w", err)
	}
	if !ok {
		return nil
	}

	if err := s.eventBus.Publish(ctx, events.StorageRenewed, events.StorageRenewedEvent{
		EventID:          eventID,
		SessionID:        sessionID,
		StorageExpiresAt: expiresAt,
		GraceUntil:       graceUntil,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish storage renewed event", "error", err, "event_id", eventID)
	}
	return nil
}

func (s *eventService) SetRSVPDeadline(ctx context.Context, eventID, hostID string, deadline *time.Time) (*domain.Event, error) {
	ok, err := s.eventRepo.SetRSVPDeadline(ctx, eventID, hostID, deadline, s.now())
	if err != nil {
		return nil, fmt.Errorf("set rsvp deadline: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return s.eventRepo.GetByID(ctx, eventID)
}

func (s *eventService) UpdateGuestAccess(ctx context.Context, eventID, hostID string, enabled bool) (*domain.Event, error) {
	ok, err := s.eventRepo.UpdateGuestAccess(ctx, eventID, hostID, enabled)
	if err != nil {
		return nil, fmt.Errorf("update guest access: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return s.eventRepo.GetByID(ctx, eventID)
}

func (s *eventService) UpdatePostEventSettings(ctx context.Context, eventID, hostID string, postEventEnabled, photoUploadEnabled bool) (*domain.Event, error) {
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
	if event.Tier < domain.TierPremium {
		return nil, domain.NewError(domain.CodeTier3Required)
	}

	ok, err := s.eventRepo.UpdatePostEventSettings(ctx, eventID, hostID, postEventEnabled, photoUploadEnabled)
	if err != nil {
		return nil, fmt.Errorf("update post event settings: %w", err)
	}
	if !ok {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return s.eventRepo.GetByID(ctx, eventID)
}

func (s *eventService) ListMenu(ctx context.Context, eventID string) ([]domain.MenuOption, error) {
	return s.menuRepo.ListByEvent(ctx, eventID)
}

func (s *eventService) hostMenuEvent(ctx context.Context, eventID, hostID string) (*domain.Event, error) {
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
	if !domain.CanHostEditMenu(event, s.now()) {
		return nil, domain.NewError(domain.CodeRSVPDeadlinePassed)
	}
	return event, nil
}

func (s *eventService) CreateMenuOption(ctx context.Context, eventID, hostID, title string, description *string, position int) (*domain.MenuOption, error) {
	if title == "" {
		return nil, domain.NewError(domain.CodeInvalidInput)
	}
	if _, err := s.hostMenuEvent(ctx, eventID, hostID); err != nil {
		return nil, err
	}
	return s.menuRepo.Create(ctx, eventID, title, description, position)
}

func (s *eventService) UpdateMenuOption(ctx context.Context, eventID, hostID, menuID, title string, description *string) error {
	if title == "" {
		return domain.NewError(domain.CodeInvalidInput)
	}
	if _, err := s.hostMenuEvent(ctx, eventID, hostID); err != nil {
		return err
	}
	ok, err := s.menuRepo.Update(ctx, menuID, eventID, title, description)
	if err != nil {
		return fmt.Errorf("update menu option: %w", err)
	}
	if !ok {
		return domain.NewError(domain.CodeMenuUnknown)
	}
	return nil
}

func (s *eventService) DeleteMenuOption(ctx context.Context, eventID, hostID, menuID string) error {
	if _, err := s.hostMenuEvent(ctx, eventID, hostID); err != nil {
		return err
	}
	ok, err := s.menuRepo.Delete(ctx, menuID, eventID)
	if err != nil {
		return fmt.Errorf("delete menu option: %w", err)
	}
	if !ok {
		return domain.NewError(domain.CodeMenuUnknown)
	}
	return nil
}

func (s *eventService) ExportGuestsCSV(ctx context.Context, eventID, hostID string) ([]byte, error) {
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

	guests, err := s.guestRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	menu, err := s.menuRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	menuTitles := make(map[string]string, len(menu))
	for _, m := range menu {
		menuTitles[m.ID] = m.Title
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"name", "rsvp_status", "menu_choice", "rsvp_at"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range guests {
		var choice, rsvpAt string
		if g.MenuChoice != nil {
			choice = menuTitles[*g.MenuChoice]
			if choice == "" {
				choice = *g.MenuChoice
			}
		}
		if g.RSVPAt != nil {
			rsvpAt = g.RSVPAt.Format(time.RFC3339)
		}
		if err := w.Write([]string{g.Name, string(g.RSVPStatus), choice, rsvpAt}); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
