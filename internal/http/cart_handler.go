package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
}

type CartHandler struct {
	carts   CartService
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewCartHandler(carts CartService, log logrus.FieldLogger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		log:     log,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, user.ID)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := h.carts.AddItem(ctx, user.ID, req.ProductID, quantity); err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, MessageResponse{Message: "Item added to cart"})
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	var req UpdateItemRequestDTO
	if err := decodeAndValidate(r, &req); err != nil {
		handleError(w, h.log, err)
		return
	}

	if err := h.carts.UpdateItem(ctx, user.ID, req.ProductID, req.Quantity); err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, MessageResponse{Message: "Cart updated"})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "product_id")
	if err := h.carts.RemoveItem(ctx, user.ID, productID); err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}
