package main

import (
	"context"
	"time"

	"github.com/fjod/marketplace/internal/config"
	"github.com/fjod/marketplace/internal/logger"
	"github.com/fjod/marketplace/internal/repository"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsProduction())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDBName,
		AppName:        "marketplace-seed",
		ConnectTimeout: cfg.MongoConnectTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	store := repository.NewStore(db)
	defer func() {
		if err := store.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("failed to disconnect from MongoDB")
		}
	}()

	if err := store.CreateIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}

	categories, products, err := loadCatalog(time.Now().UTC())
	if err != nil {
		log.WithError(err).Fatal("failed to load catalog")
	}
	if err := store.Catalog.ReplaceCatalog(ctx, categories, products); err != nil {
		log.WithError(err).Fatal("failed to seed catalog")
	}

	log.WithFields(logrus.Fields{
		"categories": len(categories),
		"products":   len(products),
	}).Info("database seeded")
}
