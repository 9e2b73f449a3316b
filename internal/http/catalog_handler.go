package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/marketplace/internal/domain"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CatalogService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type CatalogHandler struct {
	catalog CatalogService
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewCatalogHandler(catalog CatalogService, log logrus.FieldLogger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log,
		timeout: timeout,
	}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, h.log, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, product)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleError(w, logger.FromContext(ctx, h.log), err)
		return
	}

	respondJSON(w, h.log, http.StatusOK, categories)
}
