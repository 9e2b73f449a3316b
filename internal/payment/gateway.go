package payment

import (
	"context"

	"github.com/fjod/marketplace/internal/domain"
)

// Gateway is a hosted-checkout provider. CreateSession and GetStatus fail with
// an error wrapping domain.ErrGateway on any provider or network fault.
// ParseWebhook fails with domain.ErrSignatureInvalid before decoding anything
// when the signature does not verify.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetStatus(ctx context.Context, sessionID string) (*Status, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type SessionRequest struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type Session struct {
	ID  string
	URL string
}

// Status is the provider's authoritative record of a session. AmountTotal is
// in minor units.
type Status struct {
	Status        string
	PaymentStatus domain.PaymentStatus
	AmountTotal   int64
	Currency      string
}

// WebhookEvent is a verified provider notification. Only checkout events carry
// a session; other event types arrive with an empty SessionID.
type WebhookEvent struct {
	EventID       string
	Type          string
	SessionID     string
	PaymentStatus domain.PaymentStatus
	Metadata      map[string]string
}

func (e *WebhookEvent) OrderID() string {
	return e.Metadata[MetadataOrderID]
}

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)
