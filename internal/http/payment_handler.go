package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	maxWebhookBodySize    = 64 << 10
	stripeSignatureHeader = "Stripe-Signature"
)

type PaymentService interface {
	CreateSession(ctx context.Context, userID, orderID, originURL string) (*payment.Session, error)
	CheckStatus(ctx context.Context, userID, sessionID string) (*domain.PaymentCheck, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentHandler struct {
	payments PaymentService
	log      logrus.FieldLogger
	timeout  time.Duration
}

func NewPaymentHandler(payments PaymentService, log logrus.FieldLogger, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		log:      log,
		timeout:  timeout,
	}
}

type CreateSessionResponseDTO struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type WebhookResponseDTO struct {
	Status string `json:"status"`
}

func (h *PaymentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	orderID := r.URL.Query().Get("order_id")
	originURL := r.URL.Query().Get("origin_url")
	if orderID == "" || originURL == "" {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "order_id and origin_url are required")
		return
	}

	session, err := h.payments.CreateSession(ctx, user.ID, orderID, originURL)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, CreateSessionResponseDTO{URL: session.URL, SessionID: session.ID})
}

func (h *PaymentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := requireUser(w, r, h.log)
	if !ok {
		return
	}

	check, err := h.payments.CheckStatus(ctx, user.ID, chi.URLParam(r, "session_id"))
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, check)
}

// StripeWebhook is unauthenticated; the provider signature is the only
// credential.
func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	log := logger.FromContext(ctx, h.log)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, h.log, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload too large")
			return
		}
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	if err := h.payments.HandleWebhook(ctx, body, r.Header.Get(stripeSignatureHeader)); err != nil {
		handleError(w, log, err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, WebhookResponseDTO{Status: "success"})
}
