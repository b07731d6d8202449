package main

import (
	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/logging"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/telegram"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("complaint desk stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := storage.Migrate(db); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	slog.Info("database and redis ready")

	store := storage.NewStorageService(db, rdb)
	store.MaxAssignAttempts = cfg.FCFSMaxAttempts

	ttl, err := cfg.SessionDuration()
	if err != nil {
		return err
	}
	authSvc := auth.NewService(store, &auth.RedisRevoker{Client: rdb}, cfg.JWTSecret, ttl)

	// Transitions go to Redis; the bridge feeds them back into the local hub
	// so every instance sees every change.
	complaints := complaint.NewService(store, store)
	hub := feed.NewHub(complaints)
	bridge := &feed.RedisBridge{Source: store, Hub: hub}

	gin.SetMode(gin.ReleaseMode)
	api := handler.NewHandler(authSvc, complaints, hub)
	api.AllowedOrigins = cfg.AllowedOrigins
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(api),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return bridge.Run(gctx) })
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.TelegramBotToken != "" {
		localizer, err := localization.NewLocalizer(cfg.LocalizationDir)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("load localization: %w", err)
		}
		bot, err := telegram.NewBotService(cfg.TelegramBotToken, store, complaints, localizer)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return bot.Run(gctx) })
	} else {
		slog.Info("TELEGRAM_BOT_TOKEN not set, chat-ops bot disabled")
	}

	return g.Wait()
}
