package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studenteats/config"
	"studenteats/routes"
	"studenteats/services"

	"github.com/tmc/langchaingo/llms/googleai"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	cfg := config.Load()

	db, err := config.OpenDB(cfg)
	if err != nil {
		slog.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	if err := config.Migrate(db); err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	ctx := context.Background()

	var push *services.PushService
	if cfg.SNSPlatformARN != "" {
		if push, err = services.NewPushService(ctx, db, cfg.AWSRegion, cfg.SNSPlatformARN); err != nil {
			slog.Warn("push notifications disabled", "err", err)
			push = nil
		}
	}

	var labels services.LabelDetector
	if cfg.RekognitionEnabled {
		if rek, err := services.NewRekognitionService(ctx, cfg.AWSRegion); err != nil {
			slog.Warn("image recognition disabled", "err", err)
		} else {
			labels = rek
		}
	}

	var model services.ChatModel
	if cfg.GoogleAPIKey != "" {
		if llm, err := googleai.New(ctx, googleai.WithAPIKey(cfg.GoogleAPIKey), googleai.WithDefaultModel(cfg.ChatModel)); err != nil {
			slog.Warn("chat assistant disabled", "err", err)
		} else {
			model = llm
		}
	}

	hub := services.NewRealtimeHub()
	foods := services.NewFoodService(db, labels)
	meals := services.NewMealService(db)
	orders := services.NewOrderService(db, services.NewOrderEvents(hub, push))

	r := routes.SetupRouter(cfg, routes.Services{
		Profiles:  services.NewProfileService(db),
		Foods:     foods,
		Meals:     meals,
		Menus:     services.NewMenuService(foods),
		Orders:    orders,
		Chat:      services.NewChatService(db, model, services.NewToolRegistry(foods, orders, meals)),
		Analytics: services.NewAnalyticsService(db, meals),
		Recs:      services.NewRecService(meals, foods, model),
		Push:      push,
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
