package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "stripe",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		MaxHalfOpen:         1,
	}
}

// BreakerGateway guards outbound provider calls with a circuit breaker.
// Webhook verification is local and is passed straight through.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(next Gateway, s BreakerSettings, log logrus.FieldLogger) *BreakerGateway {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxHalfOpen,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// Caller cancellations say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (g *BreakerGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	res, err := g.cb.Execute(func() (any, error) {
		return g.next.CreateSession(ctx, req)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*Session), nil
}

func (g *BreakerGateway) GetStatus(ctx context.Context, sessionID string) (*Status, error) {
	res, err := g.cb.Execute(func() (any, error) {
		return g.next.GetStatus(ctx, sessionID)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*Status), nil
}

func (g *BreakerGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return g.next.ParseWebhook(payload, signature)
}

func (g *BreakerGateway) State() gobreaker.State {
	return g.cb.State()
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", domain.ErrGateway, err)
	}
	return err
}
