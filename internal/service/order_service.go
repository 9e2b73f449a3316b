package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const listOrdersLimit = 100

type CreateOrderInput struct {
	PaymentMethod   string
	ShippingAddress domain.ShippingAddress
}

type OrderService struct {
	orders repository.OrderRepository
	carts  repository.CartRepository
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		orders: orders,
		carts:  carts,
		log:    log,
		now:    time.Now,
	}
}

// CreateOrder freezes the cart's line items into a pending order. The cart is
// left intact until the payment is confirmed.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrCartEmpty
	}
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}

	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		TotalAmount:     domain.LineTotal(items),
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingAddress: in.ShippingAddress,
		Status:          domain.OrderStatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
	}).Info("order created")
	return order, nil
}

// GetOrder only returns orders owned by userID.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.orders.GetOrderForUser(ctx, orderID, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListOrdersByUserID(ctx, userID, listOrdersLimit)
}

func (s *OrderService) AttachSession(ctx context.Context, orderID, sessionID string) error {
	return s.orders.AttachSession(ctx, orderID, sessionID)
}

// MarkPaid confirms the order and reports whether this call performed the
// pending to paid transition. Repeated calls return transitioned=false.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	paidAt := s.now().UTC()
	before, err := s.orders.MarkPaid(ctx, orderID, paidAt)
	if err != nil {
		return nil, false, err
	}

	transitioned := !before.IsPaid()
	after := *before
	after.PaymentStatus = domain.PaymentStatusPaid
	after.Status = domain.OrderStatusConfirmed
	if after.PaidAt == nil {
		after.PaidAt = &paidAt
	}
	return &after, transitioned, nil
}

func (s *OrderService) MarkConfirmationPublished(ctx context.Context, orderID string) error {
	return s.orders.MarkConfirmationPublished(ctx, orderID, s.now().UTC())
}
