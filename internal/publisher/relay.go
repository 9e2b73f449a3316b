package publisher

import (
	"context"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/sirupsen/logrus"
)

// ConfirmationStore is the order-side view the relay needs.
type ConfirmationStore interface {
	ListUnpublishedConfirmations(ctx context.Context, paidBefore time.Time, limit int64) ([]*domain.Order, error)
	MarkConfirmationPublished(ctx context.Context, orderID string, at time.Time) error
}

type RelayConfig struct {
	Interval time.Duration
	// Grace leaves recently paid orders to the request that confirmed them.
	Grace     time.Duration
	BatchSize int64
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{Interval: 10 * time.Second, Grace: 30 * time.Second, BatchSize: 100}
}

// ConfirmationRelay re-publishes order.confirmed for paid orders whose
// event never went out, e.g. after a crash right after the paid write.
type ConfirmationRelay struct {
	store     ConfirmationStore
	publisher Publisher
	cfg       RelayConfig
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewConfirmationRelay(store ConfirmationStore, pub Publisher, cfg RelayConfig, log logrus.FieldLogger) *ConfirmationRelay {
	return &ConfirmationRelay{store: store, publisher: pub, cfg: cfg, log: log, now: time.Now}
}

// Run blocks until ctx is done.
func (r *ConfirmationRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.RelayPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RelayPending publishes one batch and returns how many events went out.
func (r *ConfirmationRelay) RelayPending(ctx context.Context) int {
	now := r.now().UTC()
	orders, err := r.store.ListUnpublishedConfirmations(ctx, now.Add(-r.cfg.Grace), r.cfg.BatchSize)
	if err != nil {
		r.log.WithError(err).Error("failed to fetch unpublished confirmations")
		return 0
	}

	sent := 0
	for _, order := range orders {
		log := r.log.WithField("order_id", order.ID)
		confirmedAt := now
		if order.PaidAt != nil {
			confirmedAt = order.PaidAt.UTC()
		}
		if err := r.publisher.PublishOrderConfirmed(ctx, NewOrderConfirmed(order, "", confirmedAt)); err != nil {
			log.WithError(err).Error("failed to relay order confirmed")
			continue
		}
		if err := r.store.MarkConfirmationPublished(ctx, order.ID, now); err != nil {
			log.WithError(err).Error("failed to mark confirmation published")
			continue
		}
		log.Info("relayed order confirmed")
		sent++
	}
	return sent
}
