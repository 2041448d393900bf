package service

import (
	"context"
	"testing"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/pkg/events"
)

func newTestRSVPService(eventRepo *mockEventRepo, guestRepo *mockGuestRepo, menuRepo *mockMenuRepo, bus *mockEventBus, mail *mockMailer) *rsvpService {
	return &rsvpService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		menuRepo:  menuRepo,
		eventBus:  bus,
		mail:      mail,
		now:       time.Now,
	}
}

func rsvpFixture(t *testing.T) (*rsvpService, *mockGuestRepo, *mockEventBus, *mockMailer, string) {
	t.Helper()
	event := visibleEvent("evt-1", "jonas-ir-ruta")
	event.HostEmail = "host@example.com"
	event.MenuEnabled = true
	eventRepo := newMockEventRepo(event)
	guestRepo := newMockGuestRepo()
	menuRepo := newMockMenuRepo(
		&domain.MenuOption{ID: "menu-fish", EventID: "evt-1", Title: "Žuvis"},
		&domain.MenuOption{ID: "menu-veg", EventID: "evt-1", Title: "Vegetariška"},
	)
	bus := &mockEventBus{}
	mail := &mockMailer{}
	svc := newTestRSVPService(eventRepo, guestRepo, menuRepo, bus, mail)

	guest, _, err := guestRepo.Resolve(context.Background(), "evt-1", "Jonas")
	if err != nil {
		t.Fatalf("resolve guest: %v", err)
	}
	return svc, guestRepo, bus, mail, guest.ID
}

func TestSubmitRSVPRequiresVerification(t *testing.T) {
	svc, _, _, _, guestID := rsvpFixture(t)

	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPYes, Verified: false,
	})
	if !domain.IsCode(err, domain.CodeNotVerified) {
		t.Errorf("err = %v, want NOT_VERIFIED", err)
	}
}

func TestSubmitRSVPMenuRequired(t *testing.T) {
	svc, _, _, _, guestID := rsvpFixture(t)

	// Attending a menu-enabled event without a choice is rejected.
	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPYes, Verified: true,
	})
	if !domain.IsCode(err, domain.CodeMenuRequired) {
		t.Fatalf("err = %v, want MENU_REQUIRED", err)
	}

	// Declining never requires one.
	if _, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPNo, Verified: true,
	}); err != nil {
		t.Errorf("declining without choice: %v", err)
	}
}

func TestSubmitRSVPWithMenuChoice(t *testing.T) {
	svc, guestRepo, bus, mail, guestID := rsvpFixture(t)

	choice := "menu-fish"
	guest, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPYes, MenuChoice: &choice, Verified: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if guest.RSVPStatus != domain.RSVPYes {
		t.Errorf("status = %q", guest.RSVPStatus)
	}
	if guest.MenuChoice == nil || *guest.MenuChoice != "menu-fish" {
		t.Errorf("menu choice = %v", guest.MenuChoice)
	}
	if guest.RSVPAt == nil {
		t.Error("rsvp timestamp not recorded")
	}

	found := false
	for _, s := range bus.subjects() {
		if s == events.RSVPSubmitted {
			found = true
		}
	}
	if !found {
		t.Error("rsvp.submitted not published")
	}
	if len(mail.sent) != 1 {
		t.Errorf("host notifications = %d, want 1", len(mail.sent))
	}

	// Resubmission overwrites the previous answer.
	if _, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPNo, Verified: true,
	}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	stored, _ := guestRepo.GetByID(context.Background(), guestID, "evt-1")
	if stored.RSVPStatus != domain.RSVPNo {
		t.Errorf("resubmitted status = %q", stored.RSVPStatus)
	}
	// A "no" without a choice keeps the earlier selection.
	if stored.MenuChoice == nil || *stored.MenuChoice != "menu-fish" {
		t.Errorf("menu choice after resubmit = %v", stored.MenuChoice)
	}
}

func TestSubmitRSVPUnknownMenuOption(t *testing.T) {
	svc, _, _, _, guestID := rsvpFixture(t)

	choice := "menu-nope"
	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: guestID, Status: domain.RSVPYes, MenuChoice: &choice, Verified: true,
	})
	if !domain.IsCode(err, domain.CodeMenuUnknown) {
		t.Errorf("err = %v, want MENU_OPTION_NOT_FOUND", err)
	}
}

func TestSubmitRSVPEligibilityCodes(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		mutit func(*domain.Event)
		want  string
	}{
		{"not active", func(e *domain.Event) { e.State = domain.EventPaid }, domain.CodeEventNotActive},
		{"access disabled", func(e *domain.Event) { e.GuestAccessEnabled = false }, domain.CodeGuestAccessDisabled},
		{"deadline passed", func(e *domain.Event) { e.RSVPDeadline = &past }, domain.CodeRSVPDeadlinePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := visibleEvent("evt-1", "jonas-ir-ruta")
			tt.mutit(event)
			guestRepo := newMockGuestRepo()
			guest, _, _ := guestRepo.Resolve(context.Background(), "evt-1", "Jonas")
			svc := newTestRSVPService(newMockEventRepo(event), guestRepo, newMockMenuRepo(), &mockEventBus{}, &mockMailer{})

			_, err := svc.Submit(context.Background(), SubmitRSVPInput{
				EventID: "evt-1", GuestID: guest.ID, Status: domain.RSVPNo, Verified: true,
			})
			if !domain.IsCode(err, tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestSubmitRSVPUnknownEventAndGuest(t *testing.T) {
	svc, _, _, _, _ := rsvpFixture(t)

	_, err := svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-missing", GuestID: "g", Status: domain.RSVPNo, Verified: true,
	})
	if !domain.IsCode(err, domain.CodeUnknown) {
		t.Errorf("missing event: err = %v, want UNKNOWN", err)
	}

	_, err = svc.Submit(context.Background(), SubmitRSVPInput{
		EventID: "evt-1", GuestID: "guest-missing", Status: domain.RSVPNo, Verified: true,
	})
	if !domain.IsCode(err, domain.CodeGuestNotFound) {
		t.Errorf("missing guest: err = %v, want GUEST_NOT_FOUND", err)
	}
}

func TestUpdateMenuChoiceGates(t *testing.T) {
	svc, guestRepo, _, _, guestID := rsvpFixture(t)

	if _, err := svc.UpdateMenuChoice(context.Background(), "evt-1", guestID, "menu-veg", true); err != nil {
		t.Fatalf("UpdateMenuChoice: %v", err)
	}
	stored, _ := guestRepo.GetByID(context.Background(), guestID, "evt-1")
	if stored.MenuChoice == nil || *stored.MenuChoice != "menu-veg" {
		t.Errorf("menu choice = %v", stored.MenuChoice)
	}

	if _, err := svc.UpdateMenuChoice(context.Background(), "evt-1", guestID, "menu-veg", false); !domain.IsCode(err, domain.CodeNotVerified) {
		t.Errorf("unverified edit: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	svc.eventRepo.(*mockEventRepo).events["evt-1"].RSVPDeadline = &past
	if _, err := svc.UpdateMenuChoice(context.Background(), "evt-1", guestID, "menu-veg", true); !domain.IsCode(err, domain.CodeRSVPDeadlinePassed) {
		t.Errorf("post-deadline edit: %v", err)
	}
}
