package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sventena/guestlist/internal/domain"
)

func newTestGuestService(eventRepo *mockEventRepo, guestRepo *mockGuestRepo, bus *mockEventBus) *guestService {
	return &guestService{eventRepo: eventRepo, guestRepo: guestRepo, eventBus: bus, now: time.Now}
}

func TestResolveIsIdempotent(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	guestRepo := newMockGuestRepo()
	bus := &mockEventBus{}
	svc := newTestGuestService(eventRepo, guestRepo, bus)

	first, err := svc.Resolve(context.Background(), "evt-1", "Jonas Petraitis")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Same name with different casing and padding maps to the same guest.
	second, err := svc.Resolve(context.Background(), "evt-1", "  JONAS PETRAITIS ")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("ids differ: %q vs %q", first.ID, second.ID)
	}
	if len(bus.published) != 1 {
		t.Errorf("guest.created published %d times, want 1", len(bus.published))
	}
}

func TestResolveNameBounds(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	svc := newTestGuestService(eventRepo, newMockGuestRepo(), &mockEventBus{})

	for _, name := range []string{"J", "", "  ", strings.Repeat("a", 81)} {
		if _, err := svc.Resolve(context.Background(), "evt-1", name); !domain.IsCode(err, domain.CodeInvalidInput) {
			t.Errorf("name %q: err = %v, want INVALID_INPUT", name, err)
		}
	}
}

func TestAcknowledgeUpdate(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	guestRepo := newMockGuestRepo()
	svc := newTestGuestService(eventRepo, guestRepo, &mockEventBus{})

	guest, _, _ := guestRepo.Resolve(context.Background(), "evt-1", "Jonas")
	if err := svc.AcknowledgeUpdate(context.Background(), "evt-1", guest.ID); err != nil {
		t.Fatalf("AcknowledgeUpdate: %v", err)
	}
	if guestRepo.guests[guest.ID].LastSeenUpdateAt == nil {
		t.Error("ack not recorded")
	}

	if err := svc.AcknowledgeUpdate(context.Background(), "evt-1", "missing"); !domain.IsCode(err, domain.CodeGuestNotFound) {
		t.Errorf("missing guest: %v", err)
	}
}

func TestHostGuestManagementOwnership(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	guestRepo := newMockGuestRepo()
	svc := newTestGuestService(eventRepo, guestRepo, &mockEventBus{})

	if _, err := svc.CreateByHost(context.Background(), "evt-1", "host-other", "Ona", nil); !domain.IsCode(err, domain.CodeForbidden) {
		t.Errorf("foreign host create: %v", err)
	}

	guest, err := svc.CreateByHost(context.Background(), "evt-1", "host-1", "Ona", nil)
	if err != nil {
		t.Fatalf("CreateByHost: %v", err)
	}

	email := "ona@example.com"
	updated, err := svc.UpdateByHost(context.Background(), "evt-1", "host-1", guest.ID, "Ona Onaitė", &email)
	if err != nil {
		t.Fatalf("UpdateByHost: %v", err)
	}
	if updated.Name != "Ona Onaitė" || updated.Email == nil {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.DeleteByHost(context.Background(), "evt-1", "host-1", guest.ID); err != nil {
		t.Fatalf("DeleteByHost: %v", err)
	}
	if err := svc.DeleteByHost(context.Background(), "evt-1", "host-1", guest.ID); !domain.IsCode(err, domain.CodeGuestNotFound) {
		t.Errorf("double delete: %v", err)
	}
}
