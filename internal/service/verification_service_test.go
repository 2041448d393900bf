package service

import (
	"context"
	"testing"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/pkg/config"
	"github.com/sventena/guestlist/pkg/events"
)

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.GuestSessionTTL = 24 * time.Hour
	return cfg
}

func visibleEvent(id, slug string) *domain.Event {
	return &domain.Event{
		ID:                 id,
		HostID:             "host-1",
		Slug:               slug,
		Title:              "Jonas ir Rūta",
		State:              domain.EventActive,
		GuestAccessEnabled: true,
		EventDate:          time.Now().Add(30 * 24 * time.Hour),
	}
}

func newTestVerificationService(eventRepo *mockEventRepo, guestRepo *mockGuestRepo, attempts *mockAttemptStore, bus *mockEventBus) *verificationService {
	return &verificationService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		attempts:  attempts,
		eventBus:  bus,
		config:    testConfig(),
		now:       time.Now,
	}
}

func TestVerifySuccess(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	guestRepo := newMockGuestRepo()
	attempts := newMockAttemptStore()
	bus := &mockEventBus{}
	svc := newTestVerificationService(eventRepo, guestRepo, attempts, bus)

	outcome, err := svc.Verify(context.Background(), "evt-1", "sess-1", "Jonas Petraitis", "kviečiame į jonas-ir-ruta šventę")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome.Token == "" {
		t.Error("expected verification record token")
	}
	if outcome.Guest == nil || outcome.Guest.Name != "Jonas Petraitis" {
		t.Errorf("unexpected guest: %+v", outcome.Guest)
	}
	if outcome.ExpiresIn != int64((24 * time.Hour).Seconds()) {
		t.Errorf("ExpiresIn = %d", outcome.ExpiresIn)
	}

	// Record must round-trip through CheckRecord.
	claims, err := svc.CheckRecord(outcome.Token, "evt-1")
	if err != nil {
		t.Fatalf("CheckRecord: %v", err)
	}
	if claims.Name != "Jonas Petraitis" {
		t.Errorf("claims.Name = %q", claims.Name)
	}

	// First verification publishes both creation and verification events.
	subjects := bus.subjects()
	if len(subjects) != 2 || subjects[0] != events.GuestCreated || subjects[1] != events.GuestVerified {
		t.Errorf("published = %v", subjects)
	}
}

func TestVerifyRepeatDoesNotRecreateGuest(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	guestRepo := newMockGuestRepo()
	bus := &mockEventBus{}
	svc := newTestVerificationService(eventRepo, guestRepo, newMockAttemptStore(), bus)

	phrase := "kviečiame į jonas-ir-ruta šventę"
	first, err := svc.Verify(context.Background(), "evt-1", "s", "Jonas", phrase)
	if err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	// Same name, different casing of the phrase and padded name.
	second, err := svc.Verify(context.Background(), "evt-1", "s", "  jonas ", "KVIEČIAME Į JONAS-IR-RUTA ŠVENTĘ")
	if err != nil {
		t.Fatalf("second Verify: %v", err)
	}
	if first.Guest.ID != second.Guest.ID {
		t.Errorf("guest ids differ: %q vs %q", first.Guest.ID, second.Guest.ID)
	}

	created := 0
	for _, s := range bus.subjects() {
		if s == events.GuestCreated {
			created++
		}
	}
	if created != 1 {
		t.Errorf("guest.created published %d times", created)
	}
}

func TestVerifyFailureIncrementsAndLocksOut(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	attempts := newMockAttemptStore()
	svc := newTestVerificationService(eventRepo, newMockGuestRepo(), attempts, &mockEventBus{})

	for i := 0; i < domain.MaxVerificationAttempts; i++ {
		_, err := svc.Verify(context.Background(), "evt-1", "sess-1", "Jonas", "wrong phrase")
		if !domain.IsCode(err, domain.CodeVerificationFailed) {
			t.Fatalf("attempt %d: err = %v, want VERIFICATION_FAILED", i+1, err)
		}
	}

	// Sixth attempt hits the lockout even with the correct phrase.
	_, err := svc.Verify(context.Background(), "evt-1", "sess-1", "Jonas", "kviečiame į jonas-ir-ruta šventę")
	if !domain.IsCode(err, domain.CodeTooManyAttempts) {
		t.Errorf("err = %v, want TOO_MANY_ATTEMPTS", err)
	}

	// A fresh client session starts a fresh counter.
	if _, err := svc.Verify(context.Background(), "evt-1", "sess-2", "Jonas", "kviečiame į jonas-ir-ruta šventę"); err != nil {
		t.Errorf("fresh session should verify: %v", err)
	}
}

func TestVerifySuccessClearsCounter(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	attempts := newMockAttemptStore()
	svc := newTestVerificationService(eventRepo, newMockGuestRepo(), attempts, &mockEventBus{})

	ctx := context.Background()
	svc.Verify(ctx, "evt-1", "s", "Jonas", "wrong")
	svc.Verify(ctx, "evt-1", "s", "Jonas", "wrong")
	if _, err := svc.Verify(ctx, "evt-1", "s", "Jonas", "kviečiame į jonas-ir-ruta šventę"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if n, _ := attempts.Get(ctx, "evt-1", "s"); n != 0 {
		t.Errorf("counter = %d after success, want 0", n)
	}
}

func TestVerifyUndifferentiatedFailure(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	svc := newTestVerificationService(eventRepo, newMockGuestRepo(), newMockAttemptStore(), &mockEventBus{})

	// Bad name and bad phrase produce the same code.
	_, nameErr := svc.Verify(context.Background(), "evt-1", "s", "J", "kviečiame į jonas-ir-ruta šventę")
	_, phraseErr := svc.Verify(context.Background(), "evt-1", "s", "Jonas", "wrong")
	if domain.CodeOf(nameErr) != domain.CodeOf(phraseErr) {
		t.Errorf("failure codes differ: %v vs %v", nameErr, phraseErr)
	}
}

func TestVerifyHiddenEvent(t *testing.T) {
	e := visibleEvent("evt-1", "jonas-ir-ruta")
	e.GuestAccessEnabled = false
	svc := newTestVerificationService(newMockEventRepo(e), newMockGuestRepo(), newMockAttemptStore(), &mockEventBus{})

	_, err := svc.Verify(context.Background(), "evt-1", "s", "Jonas", "kviečiame į jonas-ir-ruta šventę")
	if !domain.IsCode(err, domain.CodeEventNotVisible) {
		t.Errorf("err = %v, want EVENT_NOT_VISIBLE", err)
	}
}

func TestCheckRecordExpiry(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	svc := newTestVerificationService(eventRepo, newMockGuestRepo(), newMockAttemptStore(), &mockEventBus{})

	outcome, err := svc.Verify(context.Background(), "evt-1", "s", "Jonas", "kviečiame į jonas-ir-ruta šventę")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// Advance the clock past the TTL: the record is treated as absent.
	svc.now = func() time.Time { return time.Now().Add(domain.VerificationTTL) }
	if _, err := svc.CheckRecord(outcome.Token, "evt-1"); !domain.IsCode(err, domain.CodeNotVerified) {
		t.Errorf("err = %v, want NOT_VERIFIED", err)
	}
}

func TestCheckRecordEventMismatch(t *testing.T) {
	eventRepo := newMockEventRepo(visibleEvent("evt-1", "jonas-ir-ruta"))
	svc := newTestVerificationService(eventRepo, newMockGuestRepo(), newMockAttemptStore(), &mockEventBus{})

	outcome, err := svc.Verify(context.Background(), "evt-1", "s", "Jonas", "kviečiame į jonas-ir-ruta šventę")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := svc.CheckRecord(outcome.Token, "evt-2"); !domain.IsCode(err, domain.CodeNotVerified) {
		t.Errorf("record for evt-1 accepted for evt-2: %v", err)
	}
	if _, err := svc.CheckRecord("not-a-token", "evt-1"); !domain.IsCode(err, domain.CodeNotVerified) {
		t.Errorf("garbage token: %v", err)
	}
}
