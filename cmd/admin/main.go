package main

import (
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/logging"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// cliAdmin is the principal the CLI acts as.
var cliAdmin = models.Principal{UserID: "admin-cli", Name: "admin CLI", Role: models.RoleAdmin}

// app is what every subcommand works against.
type app struct {
	store      storage.Storage
	auth       *auth.Service
	complaints *complaint.Service
	close      func()
}

func main() {
	_ = godotenv.Load()
	logging.Init(os.Getenv("LOG_LEVEL"))

	if err := newRootCmd(openApp).Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp connects to the database named by the usual configuration. Redis is
// optional here: without it, CLI assignments do not reach live views.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN (or DB_HOST) is required")
	}
	db, err := storage.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, live views will not be notified", "addr", cfg.RedisAddr, "err", err)
		_ = rdb.Close()
		rdb = nil
	}

	store := storage.NewStorageService(db, rdb)
	store.MaxAssignAttempts = cfg.FCFSMaxAttempts
	ttl, err := cfg.SessionDuration()
	if err != nil {
		ttl = config.DefaultSessionTTL
	}

	return &app{
		store:      store,
		auth:       auth.NewService(store, auth.NewMemoryRevoker(), cfg.JWTSecret, ttl),
		complaints: complaint.NewService(store, store),
		close: func() {
			if rdb != nil {
				_ = rdb.Close()
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}
