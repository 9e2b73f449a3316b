package publisher

import (
	"context"
	"time"

	"github.com/fjod/marketplace/internal/domain"
)

const EventOrderConfirmed = "order.confirmed"

type OrderConfirmed struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// NewOrderConfirmed builds the event for a paid order.
func NewOrderConfirmed(order *domain.Order, sessionID string, at time.Time) OrderConfirmed {
	if sessionID == "" {
		sessionID = order.SessionID
	}
	return OrderConfirmed{
		OrderID:     order.ID,
		UserID:      order.UserID,
		SessionID:   sessionID,
		TotalAmount: order.TotalAmount,
		Currency:    domain.DefaultCurrency,
		ConfirmedAt: at,
	}
}

type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, event OrderConfirmed) error
	Close() error
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderConfirmed(context.Context, OrderConfirmed) error { return nil }

func (NopPublisher) Close() error { return nil }
