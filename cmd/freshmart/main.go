// Package main запускает HTTP-сервер сервиса freshmart.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/freshmart/internal/config"
	"github.com/mmeshcher/freshmart/internal/handler"
	"github.com/mmeshcher/freshmart/internal/idempotency"
	"github.com/mmeshcher/freshmart/internal/middleware"
	"github.com/mmeshcher/freshmart/internal/payment"
	"github.com/mmeshcher/freshmart/internal/repository"
	"github.com/mmeshcher/freshmart/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	opts := []service.Option{service.WithAdminEmails(cfg.AdminEmails)}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		store := idempotency.NewRedisStore(rdb, idempotency.DefaultTTL)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			sugar.Warnw("redis is unreachable, checkout de-duplication will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		opts = append(opts, service.WithDeduplicator(store))
	}

	gateway := payment.NewClient(cfg.PaymentConfig())
	if gateway.Configured() {
		sugar.Infow("razorpay configured", "key", cfg.PaymentConfig().ShortKey())
	} else {
		sugar.Warn("razorpay is not configured, payment endpoints will return errors")
	}

	svc := service.NewService(repo, gateway, logger, opts...)
	defer svc.Close()

	if len(cfg.AdminEmails) > 0 {
		promoteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := svc.PromoteAllowlisted(promoteCtx, "startup"); err != nil {
			sugar.Warnw("promote allow-listed admins", "error", err)
		}
		cancel()
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.TokenTTL)
	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is empty, tokens will not survive a restart")
	}
	h := handler.NewHandler(svc, logger, authMiddleware, cfg.AppEnv)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Досылка продаж по заказам, для которых запись не удалась
	g.Go(func() error {
		return svc.RunSaleOutbox(ctx, cfg.SaleRetryInterval)
	})

	g.Go(func() error {
		sugar.Infow("starting freshmart server", "addr", cfg.RunAddress, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

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
