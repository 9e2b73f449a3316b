package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	eventCheckoutCompleted             = "checkout.session.completed"
	eventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	// APIURL overrides the Stripe API base URL. Empty uses the live API.
	APIURL     string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

type StripeGateway struct {
	sessions      *session.Client
	webhookSecret string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	if cfg.HTTPClient != nil {
		backendCfg.HTTPClient = cfg.HTTPClient
	}
	if cfg.Logger != nil {
		backendCfg.LeveledLogger = cfg.Logger
	}

	return &StripeGateway{
		sessions: &session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.APIKey,
		},
		webhookSecret: cfg.WebhookSecret,
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(domain.ToMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + req.Metadata[MetadataOrderID]),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", domain.ErrGateway, err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetStatus(ctx context.Context, sessionID string) (*Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: get checkout session %s: %v", domain.ErrGateway, sessionID, err)
	}
	return &Status{
		Status:        string(s.Status),
		PaymentStatus: paymentStatus(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSignatureInvalid, err)
	}

	out := &WebhookEvent{EventID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case eventCheckoutCompleted, eventCheckoutAsyncPaymentSucceeded:
	default:
		return out, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", domain.ErrInvalidInput, event.ID)
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, errors.Join(domain.ErrInvalidInput, fmt.Errorf("decode checkout session: %w", err))
	}

	out.SessionID = s.ID
	out.PaymentStatus = paymentStatus(s.PaymentStatus)
	out.Metadata = s.Metadata
	return out, nil
}

// paymentStatus collapses the provider's paid/unpaid/no_payment_required
// values onto the two local states.
func paymentStatus(s stripe.CheckoutSessionPaymentStatus) domain.PaymentStatus {
	if s == stripe.CheckoutSessionPaymentStatusPaid {
		return domain.PaymentStatusPaid
	}
	return domain.PaymentStatusPending
}
