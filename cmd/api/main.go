package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fjod/marketplace/internal/auth"
	"github.com/fjod/marketplace/internal/cache"
	"github.com/fjod/marketplace/internal/config"
	h "github.com/fjod/marketplace/internal/http"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/payment"
	"github.com/fjod/marketplace/internal/publisher"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/fjod/marketplace/internal/service"
	"github.com/fjod/marketplace/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	shutdownTracing, err := tracing.Setup(startCtx, tracing.Config{
		ServiceName:  "marketplace-api",
		Environment:  cfg.AppEnv,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to set up tracing")
	}

	db, err := repository.ConnectMongoDB(startCtx, repository.MongoOptions{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		AppName:        "marketplace-api",
		ConnectTimeout: cfg.MongoConnectTimeout,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		MinPoolSize:    cfg.MongoMinPoolSize,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	store := repository.NewStore(db)
	if err := store.CreateIndexes(startCtx); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}
	log.WithField("database", cfg.MongoDBName).Info("connected to MongoDB")

	var cartCache cache.CartCache = cache.NopCache{}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := redisClient.Ping(startCtx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		cartCache = cache.NewRedisCache(redisClient)
		log.WithField("addr", cfg.RedisAddr).Info("connected to Redis")
	} else {
		log.Warn("REDIS_ADDR not set, running without cart cache")
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	relayDone := make(chan struct{})

	var events publisher.Publisher = publisher.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		events = publisher.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.WithFields(logrus.Fields{
			"brokers": cfg.KafkaBrokers,
			"topic":   cfg.KafkaTopic,
		}).Info("publishing order events to Kafka")

		relayCfg := publisher.DefaultRelayConfig()
		relayCfg.Interval = cfg.RelayInterval
		relay := publisher.NewConfirmationRelay(store.Orders, events, relayCfg, log)
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
	} else {
		close(relayDone)
		log.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	gateway := payment.NewBreakerGateway(
		payment.NewStripeGateway(payment.StripeConfig{
			APIKey:        cfg.StripeAPIKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			APIURL:        cfg.StripeAPIURL,
			Logger:        log,
		}),
		payment.DefaultBreakerSettings(),
		log,
	)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	carts := service.NewCartService(store.Carts, store.Catalog, cartCache, log)
	orders := service.NewOrderService(store.Orders, store.Carts, log)
	payments := service.NewPaymentService(orders, carts, store.Transactions, gateway, events, log)
	users := service.NewAuthService(store.Users, tokens, log)
	catalog := service.NewCatalogService(store.Catalog, store.Catalog)

	router := h.NewRouter(h.RouterConfig{
		Auth:               users,
		Carts:              carts,
		Orders:             orders,
		Payments:           payments,
		Catalog:            catalog,
		Log:                log,
		CORSOrigins:        cfg.CORSOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("marketplace API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	stopRelay()
	<-relayDone
	if err := events.Close(); err != nil {
		log.WithError(err).Warn("failed to close event publisher")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("failed to close Redis client")
		}
	}
	if err := store.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("failed to disconnect from MongoDB")
	}
	if err := shutdownTracing(ctx); err != nil {
		log.WithError(err).Warn("failed to flush traces")
	}

	log.Info("server exited")
}
