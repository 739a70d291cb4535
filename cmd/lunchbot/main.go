// Package main запускает сервис заказов обедов.
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

	"github.com/dkorovin/lunchbot-system/internal/config"
	"github.com/dkorovin/lunchbot-system/internal/dispatch"
	"github.com/dkorovin/lunchbot-system/internal/handler"
	"github.com/dkorovin/lunchbot-system/internal/menu"
	"github.com/dkorovin/lunchbot-system/internal/middleware"
	"github.com/dkorovin/lunchbot-system/internal/order"
	"github.com/dkorovin/lunchbot-system/internal/repository"
	"github.com/dkorovin/lunchbot-system/internal/telegram"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("timezone error", "error", err.Error())
	}

	book, err := menu.Load(cfg.MenuFile)
	if err != nil {
		sugar.Fatalw("menu load error", "error", err.Error(), "file", cfg.MenuFile)
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	orders := order.NewService(repo)

	tg := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramToken)

	clock := func() time.Time { return time.Now().In(loc) }
	d := dispatch.NewDispatcher(orders, repo, tg, book, clock, logger)

	webhookAuth := middleware.NewWebhookAuth(cfg.WebhookSecret)
	reportAuth := middleware.NewReportAuth(cfg.ReportKey)
	h := handler.NewHandler(d, repo, logger, loc, webhookAuth, reportAuth)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting lunchbot server", "addr", cfg.RunAddress, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
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
