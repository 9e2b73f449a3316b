package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Auth     AuthService
	Carts    CartService
	Orders   OrderService
	Payments PaymentService
	Catalog  CatalogService
	Log      logrus.FieldLogger

	CORSOrigins        []string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Auth, cfg.Log, cfg.RequestTimeout)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Log, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.Log, cfg.RequestTimeout)
	paymentHandler := NewPaymentHandler(cfg.Payments, cfg.Log, cfg.RequestTimeout)
	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Log, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, cfg.Log, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// The webhook route reads its own size-limited body.
		r.Post("/webhook/stripe", paymentHandler.StripeWebhook)

		r.Group(func(r chi.Router) {
			if cfg.MaxRequestBodySize > 0 {
				r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
			}

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{product_id}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(cfg.Auth, cfg.Log))

				r.Get("/auth/me", authHandler.Me)
				r.Put("/auth/profile", authHandler.UpdateProfile)

				r.Get("/cart", cartHandler.GetCart)
				r.Post("/cart/add", cartHandler.AddItem)
				r.Put("/cart/update", cartHandler.UpdateItem)
				r.Delete("/cart/remove/{product_id}", cartHandler.RemoveItem)

				r.Post("/orders", ordersHandler.CreateOrder)
				r.Get("/orders", ordersHandler.ListOrders)
				r.Get("/orders/{order_id}", ordersHandler.GetOrder)

				r.Post("/payment/create-session", paymentHandler.CreateSession)
				r.Get("/payment/status/{session_id}", paymentHandler.GetStatus)
			})
		})
	})

	return otelhttp.NewHandler(r, "marketplace-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
