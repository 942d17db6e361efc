// Package main запускает HTTP-сервер витрины мясного магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/meatmart/internal/catalog"
	"github.com/mmeshcher/meatmart/internal/config"
	"github.com/mmeshcher/meatmart/internal/handler"
	"github.com/mmeshcher/meatmart/internal/middleware"
	"github.com/mmeshcher/meatmart/internal/orders"
	"github.com/mmeshcher/meatmart/internal/repository"
	"github.com/mmeshcher/meatmart/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var repo service.Repository
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Warn("DATABASE_URI is empty, client data is kept in memory")
		repo = repository.NewMemoryRepository()
	}

	svc := service.NewService(repo, catalog.Fixture(), orders.Fixture(), logger, service.Options{
		Latency:  cfg.SimulatedLatency,
		Settings: service.DefaultSettings(),
	})
	defer svc.Close()

	if cfg.SessionSecret == "" {
		sugar.Warn("SESSION_SECRET is empty, client cookies will not survive a restart")
	}
	clients := middleware.NewClientMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, clients)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting meatmart server", "addr", cfg.RunAddress, "latency", cfg.SimulatedLatency)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Остановка по сигналу или ошибке сервера
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
