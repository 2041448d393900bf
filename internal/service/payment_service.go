package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/sventena/guestlist/internal/domain"
	"github.com/sventena/guestlist/pkg/config"
	"github.com/sventena/guestlist/pkg/logger"
)

const checkoutTypeStorageRenewal = "storage_renewal"

type PaymentService interface {
	// CreateCheckout starts a tier purchase for a draft event and returns
	// the hosted checkout URL.
	CreateCheckout(ctx context.Context, eventID, hostID string) (string, error)
	// CreateStorageRenewalCheckout starts a storage-window renewal purchase
	// for a tier 3 event.
	CreateStorageRenewalCheckout(ctx context.Context, eventID, hostID string) (string, error)
	// HandleWebhook verifies and applies a checkout completion delivery.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	events EventService
	sc     *client.API
	cfg    *config.Config
}

func NewPaymentService(events EventService, sc *client.API, cfg *config.Config) PaymentService {
	return &paymentService{events: events, sc: sc, cfg: cfg}
}

func (s *paymentService) CreateCheckout(ctx context.Context, eventID, hostID string) (string, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.HostID != hostID {
		return "", domain.NewError(domain.CodeForbidden)
	}
	if event.State != domain.EventDraft {
		return "", domain.NewError(domain.CodeInvalidState)
	}

	priceID, ok := s.cfg.Stripe.TierPriceIDs[event.Tier]
	if !ok {
		return "", domain.NewErrorWithDetail(domain.CodeInvalidInput, "no price configured for tier")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.cfg.SiteURL + "/host/events/" + eventID + "?checkout=success"),
		CancelURL:  stripe.String(s.cfg.SiteURL + "/host/events/" + eventID + "?checkout=cancelled"),
	}
	params.AddMetadata("event_id", eventID)
	params.AddMetadata("tier", fmt.Sprintf("%d", event.Tier))

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	logger.InfoContext(ctx, "Checkout session created", "event_id", eventID, "session_id", session.ID)
	return session.URL, nil
}

func (s *paymentService) CreateStorageRenewalCheckout(ctx context.Context, eventID, hostID string) (string, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	if event.HostID != hostID {
		return "", domain.NewError(domain.CodeForbidden)
	}
	if event.Tier < domain.TierPremium {
		return "", domain.NewError(domain.CodeTier3Required)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(s.cfg.Stripe.StorageRenewalPrice), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.cfg.SiteURL + "/host/events/" + eventID + "?renewal=success"),
		CancelURL:  stripe.String(s.cfg.SiteURL + "/host/events/" + eventID + "?renewal=cancelled"),
	}
	params.AddMetadata("event_id", eventID)
	params.AddMetadata("type", checkoutTypeStorageRenewal)

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create renewal session: %w", err)
	}

	logger.InfoContext(ctx, "Storage renewal session created", "event_id", eventID, "session_id", session.ID)
	return session.URL, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.Stripe.WebhookSecret)
	if err != nil {
		return domain.NewErrorWithDetail(domain.CodeInvalidInput, "signature verification failed")
	}

	if event.Type != "checkout.session.completed" {
		// Unsubscribed event types are acknowledged, not errors.
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	eventID := session.Metadata["event_id"]
	if eventID == "" {
		logger.WarnContext(ctx, "Checkout session without event_id metadata", "session_id", session.ID)
		return nil
	}

	if session.Metadata["type"] == checkoutTypeStorageRenewal {
		return s.events.RenewStorage(ctx, eventID, session.ID)
	}
	return s.events.MarkPaid(ctx, eventID, session.ID)
}
