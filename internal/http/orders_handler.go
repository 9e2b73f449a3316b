package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, in service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, log logrus.FieldLogger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		log:     log,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
	ShippingAddress domain.ShippingAddress `json:"shipping_address" validate:"required"`
}

type CreateOrderResponseDTO struct {
	OrderID       string  `json:"order_id"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	var req CreateOrderRequestDTO
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, user.ID, service.CreateOrderInput{
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, CreateOrderResponseDTO{
		OrderID:       order.ID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
	})
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, user.ID, chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, order)
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(ctx, user.ID)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, orders)
}
