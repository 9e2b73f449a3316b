package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions configures the client. Zero values fall back to the defaults
// below.
type MongoOptions struct {
	URI                    string
	Database               string
	AppName                string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

const (
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
	defaultMaxPoolSize            = 100
	defaultMinPoolSize            = 10
)

func ConnectMongoDB(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, clientOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(opts.Database), nil
}

// clientOptions keeps retryable writes on; every write the services issue is
// a single idempotent document operation.
func clientOptions(opts MongoOptions) *options.ClientOptions {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ServerSelectionTimeout <= 0 {
		opts.ServerSelectionTimeout = defaultServerSelectionTimeout
	}
	if opts.MaxPoolSize == 0 {
		opts.MaxPoolSize = defaultMaxPoolSize
	}
	if opts.MinPoolSize == 0 {
		opts.MinPoolSize = defaultMinPoolSize
	}
	if opts.MinPoolSize > opts.MaxPoolSize {
		opts.MinPoolSize = opts.MaxPoolSize
	}

	co := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetRetryWrites(true)
	if opts.AppName != "" {
		co.SetAppName(opts.AppName)
	}
	return co
}
