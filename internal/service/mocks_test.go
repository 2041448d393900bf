package service

import (
	"context"
	"errors"
	"time"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/events"
)

// ---------- Mocks ----------

type mockEventRepo struct {
	events map[string]*domain.Event

	markPaidCalls     int
	renewStorageCalls int
	markPaidErr       error
}

func newMockEventRepo(evts ...*domain.Event) *mockEventRepo {
	m := &mockEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range evts {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockEventRepo) Create(_ context.Context, p repository.CreateEventParams) (*domain.Event, error) {
	e := &domain.Event{
		ID:        "evt-" + p.Slug,
		HostID:    p.HostID,
		HostEmail: p.HostEmail,
		Slug:      p.Slug,
		Title:     p.Title,
		EventDate: p.EventDate,
		State:     domain.EventDraft,
		Tier:      p.Tier,
		CreatedAt: time.Now(),
	}
	m.events[e.ID] = e
	return e, nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	return m.events[id], nil
}

func (m *mockEventRepo) GetBySlug(_ context.Context, slug string) (*domain.Event, error) {
	for _, e := range m.events {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockEventRepo) ListByHost(_ context.Context, hostID string) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.events {
		if e.HostID == hostID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEventRepo) CountSlug(_ context.Context, baseSlug string) (int, error) {
	count := 0
	for _, e := range m.events {
		if e.Slug == baseSlug {
			count++
		}
	}
	return count, nil
}

func (m *mockEventRepo) MarkPaid(_ context.Context, id, sessionID string, paidAt time.Time, expiresAt, graceUntil *time.Time) (bool, error) {
	if m.markPaidErr != nil {
		return false, m.markPaidErr
	}
	e, ok := m.events[id]
	if !ok || e.State != domain.EventDraft {
		return false, nil
	}
	m.markPaidCalls++
	e.State = domain.EventPaid
	e.StripeSessionID = &sessionID
	e.PaidAt = &paidAt
	e.StorageExpiresAt = expiresAt
	e.StorageGraceUntil = graceUntil
	return true, nil
}

func (m *mockEventRepo) Activate(_ context.Context, id, hostID string) (bool, error) {
	e, ok := m.events[id]
	if !ok || e.HostID != hostID || e.State != domain.EventPaid {
		return false, nil
	}
	e.State = domain.EventActive
	e.GuestAccessEnabled = true
	return true, nil
}

func (m *mockEventRepo) RenewStorage(_ context.Context, id, sessionID string, expiresAt, graceUntil time.Time) (bool, error) {
	e, ok := m.events[id]
	if !ok || e.Tier < domain.TierPremium {
		return false, nil
	}
	if e.StorageRenewalSessionID != nil && *e.StorageRenewalSessionID == sessionID {
		return false, nil
	}
	m.renewStorageCalls++
	e.StorageRenewalSessionID = &sessionID
	e.StorageExpiresAt = &expiresAt
	e.StorageGraceUntil = &graceUntil
	return true, nil
}

func (m *mockEventRepo) UpdatePostEventSettings(_ context.Context, id, hostID string, postEventEnabled, photoUploadEnabled bool) (bool, error) {
	e, ok := m.events[id]
	if !ok || e.HostID != hostID {
		return false, nil
	}
	e.PostEventEnabled = postEventEnabled
	e.GuestPhotoUploadEnabled = photoUploadEnabled
	return true, nil
}

func (m *mockEventRepo) UpdateGuestAccess(_ context.Context, id, hostID string, enabled bool) (bool, error) {
	e, ok := m.events[id]
	if !ok || e.HostID != hostID {
		return false, nil
	}
	e.GuestAccessEnabled = enabled
	return true, nil
}

func (m *mockEventRepo) SetRSVPDeadline(_ context.Context, id, hostID string, deadline *time.Time, criticalAt time.Time) (bool, error) {
	e, ok := m.events[id]
	if !ok || e.HostID != hostID {
		return false, nil
	}
	e.RSVPDeadline = deadline
	e.LastCriticalUpdateAt = &criticalAt
	return true, nil
}

type mockGuestRepo struct {
	guests     map[string]*domain.Guest // keyed by id
	nextID     int
	resolveErr error
	updateErr  error
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{guests: make(map[string]*domain.Guest), nextID: 1}
}

func (m *mockGuestRepo) Resolve(_ context.Context, eventID, name string) (*domain.Guest, bool, error) {
	if m.resolveErr != nil {
		return nil, false, m.resolveErr
	}
	norm := domain.NormalizeGuestName(name)
	for _, g := range m.guests {
		if g.EventID == eventID && g.NormalizedName == norm {
			return g, false, nil
		}
	}
	g := &domain.Guest{
		ID:             "guest-" + norm,
		EventID:        eventID,
		Name:           name,
		NormalizedName: norm,
		RSVPStatus:     domain.RSVPPending,
		CreatedAt:      time.Now(),
	}
	m.guests[g.ID] = g
	return g, true, nil
}

func (m *mockGuestRepo) GetByID(_ context.Context, id, eventID string) (*domain.Guest, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return nil, nil
	}
	return g, nil
}

func (m *mockGuestRepo) ListByEvent(_ context.Context, eventID string) ([]domain.Guest, error) {
	var out []domain.Guest
	for _, g := range m.guests {
		if g.EventID == eventID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockGuestRepo) UpdateRSVP(_ context.Context, id, eventID string, status domain.RSVPStatus, menuChoice *string, at time.Time) (bool, error) {
	if m.updateErr != nil {
		return false, m.updateErr
	}
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return false, nil
	}
	g.RSVPStatus = status
	g.RSVPAt = &at
	if menuChoice != nil {
		g.MenuChoice = menuChoice
	}
	return true, nil
}

func (m *mockGuestRepo) UpdateMenuChoice(_ context.Context, id, eventID string, menuChoice *string) (bool, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return false, nil
	}
	g.MenuChoice = menuChoice
	return true, nil
}

func (m *mockGuestRepo) MarkSeenUpdate(_ context.Context, id, eventID string, at time.Time) (bool, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return false, nil
	}
	g.LastSeenUpdateAt = &at
	return true, nil
}

func (m *mockGuestRepo) CreateByHost(_ context.Context, eventID, name string, email *string) (*domain.Guest, error) {
	g := &domain.Guest{
		ID:             "host-guest-" + name,
		EventID:        eventID,
		Name:           name,
		NormalizedName: domain.NormalizeGuestName(name),
		Email:          email,
		RSVPStatus:     domain.RSVPPending,
	}
	m.guests[g.ID] = g
	return g, nil
}

func (m *mockGuestRepo) UpdateByHost(_ context.Context, id, eventID, name string, email *string) (bool, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return false, nil
	}
	g.Name = name
	g.Email = email
	return true, nil
}

func (m *mockGuestRepo) Delete(_ context.Context, id, eventID string) (bool, error) {
	g, ok := m.guests[id]
	if !ok || g.EventID != eventID {
		return false, nil
	}
	delete(m.guests, id)
	return true, nil
}

type mockMenuRepo struct {
	options map[string]*domain.MenuOption
}

func newMockMenuRepo(opts ...*domain.MenuOption) *mockMenuRepo {
	m := &mockMenuRepo{options: make(map[string]*domain.MenuOption)}
	for _, o := range opts {
		m.options[o.ID] = o
	}
	return m
}

func (m *mockMenuRepo) ListByEvent(_ context.Context, eventID string) ([]domain.MenuOption, error) {
	var out []domain.MenuOption
	for _, o := range m.options {
		if o.EventID == eventID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockMenuRepo) GetByID(_ context.Context, id, eventID string) (*domain.MenuOption, error) {
	o, ok := m.options[id]
	if !ok || o.EventID != eventID {
		return nil, nil
	}
	return o, nil
}

func (m *mockMenuRepo) Create(_ context.Context, eventID, title string, description *string, position int) (*domain.MenuOption, error) {
	o := &domain.MenuOption{ID: "menu-" + title, EventID: eventID, Title: title, Description: description, Position: position}
	m.options[o.ID] = o
	return o, nil
}

func (m *mockMenuRepo) Update(_ context.Context, id, eventID, title string, description *string) (bool, error) {
	o, ok := m.options[id]
	if !ok || o.EventID != eventID {
		return false, nil
	}
	o.Title = title
	o.Description = description
	return true, nil
}

func (m *mockMenuRepo) Delete(_ context.Context, id, eventID string) (bool, error) {
	o, ok := m.options[id]
	if !ok || o.EventID != eventID {
		return false, nil
	}
	delete(m.options, id)
	return true, nil
}

type mockPhotoRepo struct {
	photos    map[string]*domain.Photo
	insertErr error
}

func newMockPhotoRepo() *mockPhotoRepo {
	return &mockPhotoRepo{photos: make(map[string]*domain.Photo)}
}

func (m *mockPhotoRepo) Insert(_ context.Context, id, eventID, storagePath string) (*domain.Photo, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	p := &domain.Photo{ID: id, EventID: eventID, StoragePath: storagePath, CreatedAt: time.Now()}
	m.photos[id] = p
	return p, nil
}

func (m *mockPhotoRepo) ListActive(_ context.Context, eventID string) ([]domain.Photo, error) {
	var out []domain.Photo
	for _, p := range m.photos {
		if p.EventID == eventID && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPhotoRepo) GetByID(_ context.Context, id, eventID string) (*domain.Photo, error) {
	p, ok := m.photos[id]
	if !ok || p.EventID != eventID {
		return nil, nil
	}
	return p, nil
}

func (m *mockPhotoRepo) SoftDelete(_ context.Context, id, eventID string, at time.Time) (bool, error) {
	p, ok := m.photos[id]
	if !ok || p.EventID != eventID || p.DeletedAt != nil {
		return false, nil
	}
	p.DeletedAt = &at
	return true, nil
}

type mockAttemptStore struct {
	counts map[string]int
	getErr error
}

func newMockAttemptStore() *mockAttemptStore {
	return &mockAttemptStore{counts: make(map[string]int)}
}

func (m *mockAttemptStore) key(eventID, sessionKey string) string { return eventID + "/" + sessionKey }

func (m *mockAttemptStore) Get(_ context.Context, eventID, sessionKey string) (int, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.counts[m.key(eventID, sessionKey)], nil
}

func (m *mockAttemptStore) Increment(_ context.Context, eventID, sessionKey string) (int, error) {
	k := m.key(eventID, sessionKey)
	m.counts[k]++
	return m.counts[k], nil
}

func (m *mockAttemptStore) Clear(_ context.Context, eventID, sessionKey string) error {
	delete(m.counts, m.key(eventID, sessionKey))
	return nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockEventBus struct {
	published []publishedEvent
}

func (m *mockEventBus) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockEventBus) Subscribe(string, func(*events.Message)) error            { return nil }
func (m *mockEventBus) QueueSubscribe(string, string, func(*events.Message)) error { return nil }
func (m *mockEventBus) Close() error                                             { return nil }

func (m *mockEventBus) subjects() []string {
	out := make([]string, 0, len(m.published))
	for _, p := range m.published {
		out = append(out, p.subject)
	}
	return out
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) SendRSVPNotification(hostEmail, eventTitle, guestName, rsvpStatus, menuChoice string) error {
	m.sent = append(m.sent, hostEmail+"|"+guestName+"|"+rsvpStatus)
	return nil
}

type mockBlobStore struct {
	objects   map[string][]byte
	putCalls  int
	removed   []string
	putErr    error
	signedErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, path string, data []byte, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.putCalls++
	m.objects[path] = data
	return nil
}

func (m *mockBlobStore) Remove(_ context.Context, path string) error {
	m.removed = append(m.removed, path)
	delete(m.objects, path)
	return nil
}

func (m *mockBlobStore) SignedURL(path string, _ time.Duration) (string, error) {
	if m.signedErr != nil {
		return "", m.signedErr
	}
	return "https://signed.example/" + path, nil
}

var errBoom = errors.New("boom")
