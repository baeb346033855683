package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/database"
	"github.com/shashiranjanraj/wellness360/pkg/event"
	"github.com/shashiranjanraj/wellness360/pkg/grpc"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/schedule"
	"github.com/shashiranjanraj/wellness360/pkg/tracing"
	"github.com/shashiranjanraj/wellness360/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// Serve boots the application and serves HTTP until ctx is cancelled.
// Background workers run alongside it and stop before Serve returns.
func Serve(ctx context.Context) error {
	rt, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rt.Close(closeCtx)
	}()

	flushSpans, err := tracing.Init(ctx)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := flushSpans(flushCtx); err != nil {
			logger.Warn("tracing: flush failed", "error", err)
		}
	}()

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	var wg sync.WaitGroup
	hub := ws.NewHub(config.CORSAllowedOrigins())
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(runCtx)
	}()
	for _, name := range []string{event.CommunityDiscussion, event.CommunityReply} {
		kind := name
		event.Listen(kind, func(_ context.Context, payload any) { hub.Publish(kind, payload) })
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rt.Queue.Run(runCtx, config.QueueWorkers())
	}()

	sched := schedule.New()
	rt.App.Maintenance.Register(sched)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(runCtx)
	}()

	var health *grpc.Server
	if port := config.GRPCPort(); port != "" {
		health = grpc.New(func(ctx context.Context) error { return database.Ping(ctx, rt.DB) })
		if err := health.Start(runCtx, port); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           NewRouter(rt.DB, rt.App, hub).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("wellness360 listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			stopBackground()
			wg.Wait()
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http: shutdown", "error", err)
	}
	if health != nil {
		health.Stop()
	}
	stopBackground()
	wg.Wait()
	event.Default.Flush()
	return nil
}
