// Package testutil sets up in-memory backends for package tests.
package testutil

import (
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database.
// A single connection keeps the database alive and serializes transactions.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// NewStorage returns a storage service over NewDB without Redis.
func NewStorage(t *testing.T) *storage.Service {
	t.Helper()
	return storage.NewStorageService(NewDB(t), nil)
}

// Clock hands out strictly increasing whole-second UTC times.
// It is safe for concurrent use.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)}
}

// Now advances the clock by one second and returns the new time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// Peek returns the current time without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// SeedUser stores a user with the given role.
func SeedUser(t *testing.T, s storage.Storage, name string, role models.Role, createdAt time.Time) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        name + "@school.test",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    createdAt,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

// SeedComplaint stores a pending complaint for student.
func SeedComplaint(t *testing.T, s storage.Storage, student *models.User, title string, createdAt time.Time) *models.Complaint {
	t.Helper()
	c := &models.Complaint{
		Title:       title,
		Description: title + " details",
		StudentID:   student.ID,
		StudentName: student.Name,
		Status:      models.StatusPending,
		CreatedAt:   createdAt,
	}
	if err := s.CreateComplaint(context.Background(), c); err != nil {
		t.Fatalf("seed complaint %s: %v", title, err)
	}
	return c
}
