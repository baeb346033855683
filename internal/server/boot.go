package server

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/app/routes"
	"github.com/shashiranjanraj/wellness360/app/services"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/broker"
	"github.com/shashiranjanraj/wellness360/pkg/cache"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/mail"
	"github.com/shashiranjanraj/wellness360/pkg/paystack"
	"github.com/shashiranjanraj/wellness360/pkg/queue"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// Runtime is a booted application: open connections plus the wired
// services.
type Runtime struct {
	DB      *gorm.DB
	App     *routes.App
	Queue   *queue.Manager
	reports repositories.ImportReportStore
	closers []func(context.Context) error
}

// Boot loads configuration and opens the database, cache, storage and
// import-report store.
func Boot(ctx context.Context) (*Runtime, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return nil, err
	}
	if err := cache.Connect(ctx); err != nil {
		logger.Warn("cache: using in-memory store", "error", err)
	}
	if err := storage.Connect(); err != nil {
		return nil, err
	}

	rt := &Runtime{DB: database.DB}
	rt.reports = rt.importReports(ctx)
	rt.App = routes.Wire(database.DB, storage.Default, rt.reports, paystack.NewFromConfig())

	rt.Queue = queue.New(queueDriver())
	rt.Queue.UseDB(database.DB)
	services.NewNotifier(rt.Queue, mail.FromConfig()).Listen(event.Default)
	rt.forwardEvents()
	return rt, nil
}

// forwardEvents streams domain events to Kafka when brokers are configured.
func (rt *Runtime) forwardEvents() {
	brokers := config.KafkaBrokers()
	if len(brokers) == 0 {
		return
	}
	pub, err := broker.NewKafka(brokers, config.KafkaTopicPrefix())
	if err != nil {
		logger.Warn("events stay in-process", "error", err)
		return
	}
	pub.Forward(event.Default,
		event.OrderPlaced,
		event.ProductsImported,
		event.CommunityDiscussion,
		event.CommunityReply,
		event.WorkshopRegistration,
	)
	rt.closers = append(rt.closers, pub.Close)
}

func queueDriver() queue.Driver {
	if config.QueueDriver() == "redis" {
		if cache.RDB != nil {
			return queue.NewRedisDriver(cache.RDB)
		}
		logger.Warn("queue: redis unavailable, using the in-memory driver")
	}
	return queue.NewMemoryDriver(1000)
}

// importReports prefers MongoDB and falls back to memory.
func (rt *Runtime) importReports(ctx context.Context) repositories.ImportReportStore {
	uri := config.MongoURI()
	if uri == "" {
		return repositories.NewMemoryImportReportStore(200)
	}
	store, err := repositories.NewMongoImportReportStore(ctx, uri, config.MongoDatabase())
	if err != nil {
		logger.Warn("import reports: mongo unavailable, keeping them in memory", "error", err)
		return repositories.NewMemoryImportReportStore(200)
	}
	rt.closers = append(rt.closers, store.Close)
	return store
}

// Close releases the connections opened by Boot.
func (rt *Runtime) Close(ctx context.Context) {
	for _, c := range rt.closers {
		if err := c(ctx); err != nil {
			logger.Warn("shutdown: close failed", "error", err)
		}
	}
	if sqlDB, err := rt.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
