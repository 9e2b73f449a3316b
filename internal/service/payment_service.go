package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/payment"
	"github.com/fjod/marketplace/internal/publisher"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fjod/marketplace/internal/service"

type OrderLedger interface {
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	AttachSession(ctx context.Context, orderID, sessionID string) error
	MarkPaid(ctx context.Context, orderID string) (*domain.Order, bool, error)
	MarkConfirmationPublished(ctx context.Context, orderID string) error
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// PaymentService converges local order, transaction and cart state with the
// provider. Status polls and webhooks both end in reconcile.
type PaymentService struct {
	orders       OrderLedger
	carts        CartClearer
	transactions repository.TransactionRepository
	gateway      payment.Gateway
	publisher    publisher.Publisher
	log          logrus.FieldLogger
	tracer       trace.Tracer
	now          func() time.Time
}

func NewPaymentService(
	orders OrderLedger,
	carts CartClearer,
	transactions repository.TransactionRepository,
	gateway payment.Gateway,
	pub publisher.Publisher,
	log logrus.FieldLogger,
) *PaymentService {
	return &PaymentService{
		orders:       orders,
		carts:        carts,
		transactions: transactions,
		gateway:      gateway,
		publisher:    pub,
		log:          log,
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
	}
}

// CreateSession opens a hosted checkout for one of the user's orders and
// records a pending transaction for it.
func (s *PaymentService) CreateSession(ctx context.Context, userID, orderID, originURL string) (*payment.Session, error) {
	origin, err := parseOrigin(originURL)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodStripe {
		return nil, domain.ErrUnsupportedPaymentMethod
	}
	if order.IsPaid() {
		return nil, domain.ErrOrderAlreadyPaid
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		Amount:     order.TotalAmount,
		Currency:   domain.DefaultCurrency,
		SuccessURL: origin + "/order-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  origin + "/checkout",
		Metadata: map[string]string{
			payment.MetadataOrderID: order.ID,
			payment.MetadataUserID:  userID,
		},
	})
	if err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithField("order_id", order.ID).Error("create checkout session failed")
		return nil, gatewayError(err)
	}

	txn := &domain.PaymentTransaction{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		SessionID:     session.ID,
		Amount:        order.TotalAmount,
		Currency:      domain.DefaultCurrency,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodStripe,
		UserID:        userID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.transactions.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := s.orders.AttachSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"order_id":   order.ID,
		"session_id": session.ID,
	}).Info("checkout session created")
	return session, nil
}

// CheckStatus answers a client poll. A transaction already recorded as paid
// is answered locally without calling the provider.
func (s *PaymentService) CheckStatus(ctx context.Context, userID, sessionID string) (*domain.PaymentCheck, error) {
	txn, err := s.transactions.GetTransactionForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if txn.PaymentStatus.IsTerminal() {
		return &domain.PaymentCheck{
			Status:        domain.CheckoutStatusCompleted,
			PaymentStatus: domain.PaymentStatusPaid,
			OrderID:       txn.OrderID,
		}, nil
	}

	status, err := s.gateway.GetStatus(ctx, sessionID)
	if err != nil {
		logger.FromContext(ctx, s.log).WithError(err).WithField("session_id", sessionID).Error("payment status poll failed")
		return nil, gatewayError(err)
	}

	if err := s.transactions.UpdatePaymentStatus(ctx, sessionID, status.PaymentStatus); err != nil {
		return nil, err
	}
	if status.PaymentStatus.IsTerminal() {
		if err := s.reconcile(ctx, txn.OrderID, sessionID); err != nil {
			return nil, err
		}
	}

	amount := domain.FromMinorUnits(status.AmountTotal)
	return &domain.PaymentCheck{
		Status:        status.Status,
		PaymentStatus: status.PaymentStatus,
		OrderID:       txn.OrderID,
		Amount:        &amount,
	}, nil
}

// HandleWebhook verifies the provider signature before any read or write.
// Verified events that do not report a paid session, or that name an unknown
// order, are acknowledged without mutation.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.FromContext(ctx, s.log)

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.WithError(err).Warn("webhook rejected")
		return err
	}

	log = log.WithFields(logrus.Fields{
		"event_id":   event.EventID,
		"event_type": event.Type,
		"session_id": event.SessionID,
	})
	if event.SessionID == "" || !event.PaymentStatus.IsTerminal() {
		log.Debug("webhook acknowledged without payment")
		return nil
	}

	orderID := event.OrderID()
	if orderID == "" {
		log.Warn("paid webhook without order metadata")
		return nil
	}

	err = s.reconcile(ctx, orderID, event.SessionID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		log.WithField("order_id", orderID).Warn("paid webhook for unknown order")
		return nil
	}
	return err
}

// reconcile applies the confirmation writes in order. Each write is
// idempotent, so a duplicate or racing trigger, or a retry after a partial
// failure, converges on the same state.
func (s *PaymentService) reconcile(ctx context.Context, orderID, sessionID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "payment.reconcile", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("payment.session_id", sessionID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	order, transitioned, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Bool("order.transitioned", transitioned))
	if transitioned {
		s.publishConfirmed(ctx, order, sessionID)
	}

	if err := s.transactions.MarkPaid(ctx, sessionID); err != nil {
		return err
	}
	return s.carts.ClearCart(ctx, order.UserID)
}

// publishConfirmed runs once per order, right after the write that moved it
// to paid. Failures are logged only; the confirmation relay picks up orders
// that were never marked published.
func (s *PaymentService) publishConfirmed(ctx context.Context, order *domain.Order, sessionID string) {
	log := logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"order_id":   order.ID,
		"session_id": sessionID,
	})
	log.Info("order confirmed")

	confirmedAt := s.now().UTC()
	if order.PaidAt != nil {
		confirmedAt = order.PaidAt.UTC()
	}
	ctx = context.WithoutCancel(ctx)
	event := publisher.NewOrderConfirmed(order, sessionID, confirmedAt)
	if err := s.publisher.PublishOrderConfirmed(ctx, event); err != nil {
		log.WithError(err).Error("publish order confirmed failed")
		return
	}
	if err := s.orders.MarkConfirmationPublished(ctx, order.ID); err != nil {
		log.WithError(err).Warn("failed to mark confirmation published")
	}
}

func parseOrigin(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: origin_url must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

func gatewayError(err error) error {
	if errors.Is(err, domain.ErrGateway) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGateway, err)
}
