package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sventena/guestlist/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	GuestCreated   = "guest.created"
	GuestVerified  = "guest.verified"
	RSVPSubmitted  = "rsvp.submitted"
	EventPaid      = "event.paid"
	EventActivated = "event.activated"
	StorageRenewed = "storage.renewed"
	PhotoUploaded  = "photo.uploaded"
	PhotoDeleted   = "photo.deleted"
)

// Event payloads
type GuestCreatedEvent struct {
	GuestID   string    `json:"guest_id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type GuestVerifiedEvent struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	VerifiedAt time.Time `json:"verified_at"`
}

type RSVPSubmittedEvent struct {
	GuestID    string    `json:"guest_id"`
	EventID    string    `json:"event_id"`
	RSVPStatus string    `json:"rsvp_status"`
	MenuChoice string    `json:"menu_choice,omitempty"`
	RSVPAt     time.Time `json:"rsvp_at"`
}

type EventPaidEvent struct {
	EventID   string    `json:"event_id"`
	Tier      int       `json:"tier"`
	SessionID string    `json:"session_id"`
	PaidAt    time.Time `json:"paid_at"`
}

type StorageRenewedEvent struct {
	EventID          string    `json:"event_id"`
	SessionID        string    `json:"session_id"`
	StorageExpiresAt time.Time `json:"storage_expires_at"`
	GraceUntil       time.Time `json:"grace_until"`
}

type PhotoUploadedEvent struct {
	PhotoID     string    `json:"photo_id"`
	EventID     string    `json:"event_id"`
	StoragePath string    `json:"storage_path"`
	SizeBytes   int       `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type PhotoDeletedEvent struct {
	PhotoID   string    `json:"photo_id"`
	EventID   string    `json:"event_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
