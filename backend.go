package main

import (
	"context"
	"fmt"
	"time"

	"civicreport/config"
	"civicreport/middlewares"
	"civicreport/session"
	"civicreport/store"

	"github.com/sirupsen/logrus"
)

// backend holds the storage chosen by STORE_BACKEND.
type backend struct {
	Store    store.Store
	Sessions session.Store
	Counter  middlewares.Counter
	close    []func(context.Context) error
}

func (b *backend) Close(ctx context.Context) {
	for i := len(b.close) - 1; i >= 0; i-- {
		_ = b.close[i](ctx)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*backend, error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("using in-memory store; data is lost on exit")
		return &backend{
			Store:    store.NewMemory(time.Now),
			Sessions: session.NewMemory(time.Now),
			Counter:  middlewares.NewMemoryCounter(time.Now),
		}, nil
	}

	b := &backend{}

	client, db, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	b.close = append(b.close, client.Disconnect)
	logger.WithField("database", cfg.MongoDatabase).Info("MongoDB connection established")

	mongoStore := store.NewMongo(db, time.Now)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		b.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	b.Store = mongoStore

	rdb, err := config.ConnectRedis(ctx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		b.Close(ctx)
		return nil, err
	}
	b.close = append(b.close, func(context.Context) error { return rdb.Close() })
	logger.WithField("address", cfg.RedisAddress).Info("Redis connection established")

	b.Sessions = session.NewRedis(rdb, "session")
	b.Counter = middlewares.NewRedisCounter(rdb)
	return b, nil
}
