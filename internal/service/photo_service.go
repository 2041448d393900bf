package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sventena/guestlist/internal/blob"
	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
)

// GalleryPhoto is a listed photo with a short-lived download URL instead of
// the raw storage path.
type GalleryPhoto struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type PhotoService interface {
	// List returns the gallery for a guest, honoring the pre/post-event
	// window rules.
	List(ctx context.Context, eventID string, verified bool) ([]GalleryPhoto, error)
	// Upload accepts a base64 data URL (or bare base64) payload from a
	// verified guest.
	Upload(ctx context.Context, eventID, payload string, verified bool) (*domain.Photo, error)
	// Delete soft-deletes a photo on behalf of the owning host.
	Delete(ctx context.Context, eventID, hostID, photoID string) error
}

type photoService struct {
	eventRepo repository.EventRepository
	photoRepo repository.PhotoRepository
	store     blob.Store
	eventBus  events.EventBus
	urlTTL    time.Duration
	now       func() time.Time
}

func NewPhotoService(
	eventRepo repository.EventRepository,
	photoRepo repository.PhotoRepository,
	store blob.Store,
	eventBus events.EventBus,
	urlTTL time.Duration,
) PhotoService {
	return &photoService{
		eventRepo: eventRepo,
		photoRepo: photoRepo,
		store:     store,
		eventBus:  eventBus,
		urlTTL:    urlTTL,
		now:       time.Now,
	}
}

func (s *photoService) galleryEvent(ctx context.Context, eventID string, verified bool) (*domain.Event, error) {
	if !verified {
		return nil, domain.NewError(domain.CodeNotVerified)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.NewError(domain.CodeEventNotFound)
	}
	return event, nil
}

func (s *photoService) List(ctx context.Context, eventID string, verified bool) ([]GalleryPhoto, error) {
	event, err := s.galleryEvent(ctx, eventID, verified)
	if err != nil {
		return nil, err
	}

	switch domain.GalleryWindowAt(event, s.now()) {
	case domain.GalleryPreEvent:
		if !domain.CanGuestView(event) {
			return nil, domain.NewError(domain.CodeEventNotVisible)
		}
	case domain.GalleryUnavailable:
		return nil, domain.NewError(domain.CodePostEventNotAllowed)
	case domain.GalleryExpired:
		return nil, domain.NewError(domain.CodeStorageExpired)
	}

	photos, err := s.photoRepo.ListActive(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	gallery := make([]GalleryPhoto, 0, len(photos))
	for _, p := range photos {
		url, err := s.store.SignedURL(p.StoragePath, s.urlTTL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to sign photo URL", "error", err, "photo_id", p.ID)
			continue
		}
		gallery = append(gallery, GalleryPhoto{ID: p.ID, URL: url, CreatedAt: p.CreatedAt})
	}
	return gallery, nil
}

// decodePhotoPayload accepts either a data URL ("data:image/jpeg;base64,...")
// or bare base64, tolerating embedded whitespace.
func decodePhotoPayload(payload string) ([]byte, error) {
	if i := strings.Index(payload, "base64,"); i >= 0 {
		payload = payload[i+len("base64,"):]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, domain.NewError(domain.CodeInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidImage)
	}
	return data, nil
}

func (s *photoService) Upload(ctx context.Context, eventID, payload string, verified bool) (*domain.Photo, error) {
	event, err := s.galleryEvent(ctx, eventID, verified)
	if err != nil {
		return nil, err
	}

	if event.Tier < domain.TierPremium {
		return nil, domain.NewError(domain.CodeTier3Required)
	}
	if !event.PostEventEnabled {
		return nil, domain.NewError(domain.CodePostEventDisabled)
	}
	if !event.GuestPhotoUploadEnabled {
		return nil, domain.NewError(domain.CodeUploadDisabled)
	}
	if domain.GalleryWindowAt(event, s.now()) == domain.GalleryExpired {
		return nil, domain.NewError(domain.CodeStorageExpired)
	}

	// Size is checked before any write leaves the process.
	data, err := decodePhotoPayload(payload)
	if err != nil {
		return nil, err
	}
	if len(data) > domain.MaxPhotoBytes {
		return nil, domain.NewError(domain.CodeInvalidFileSize)
	}

	photoID := uuid.New().String()
	path := eventID + "/" + photoID + ".jpg"

	if err := s.store.Put(ctx, path, data, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo, err := s.photoRepo.Insert(ctx, photoID, eventID, path)
	if err != nil {
		// The blob must not outlive a failed row insert.
		if rmErr := s.store.Remove(ctx, path); rmErr != nil {
			logger.ErrorContext(ctx, "Failed to remove orphaned photo blob", "error", rmErr, "path", path)
		}
		return nil, fmt.Errorf("insert photo: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.PhotoUploaded, events.PhotoUploadedEvent{
		PhotoID:     photo.ID,
		EventID:     eventID,
		StoragePath: path,
		SizeBytes:   len(data),
		UploadedAt:  photo.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish photo uploaded event", "error", err, "photo_id", photo.ID)
	}

	return photo, nil
}

func (s *photoService) Delete(ctx context.Context, eventID, hostID, photoID string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return domain.NewError(domain.CodeEventNotFound)
	}
	if event.HostID != hostID {
		return domain.NewError(domain.CodeForbidden)
	}

	deletedAt := s.now()
	ok, err := s.photoRepo.SoftDelete(ctx, photoID, eventID, deletedAt)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if !ok {
		return domain.NewError(domain.CodePhotoNotFound)
	}

	if err := s.eventBus.Publish(ctx, events.PhotoDeleted, events.PhotoDeletedEvent{
		PhotoID:   photoID,
		EventID:   eventID,
		DeletedAt: deletedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish photo deleted event", "error", err, "photo_id", photoID)
	}
	return nil
}
