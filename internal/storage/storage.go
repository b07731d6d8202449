package storage

import (
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means no row matched the given id.
	ErrNotFound = errors.New("storage: record not found")
	// ErrStateChanged means the row exists but was no longer in the expected state.
	ErrStateChanged = errors.New("storage: complaint state changed")
	// ErrNoPending means there was no pending complaint to claim.
	ErrNoPending = errors.New("storage: no pending complaints")
	// ErrConflict means every claim attempt lost a race.
	ErrConflict = errors.New("storage: claim attempts exhausted")
	// ErrDuplicate means a unique column already holds the value.
	ErrDuplicate = errors.New("storage: duplicate record")
)

type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	SetUserTelegramID(ctx context.Context, userID string, telegramID int64) error

	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaintByID(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaintsByStudent(ctx context.Context, studentID string) ([]models.Complaint, error)
	ListComplaintsByTeacher(ctx context.Context, teacherID string) ([]models.Complaint, error)
	ListComplaints(ctx context.Context) ([]models.Complaint, error)
	ListComplaintsByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error)

	AssignOldestPending(ctx context.Context, teacher *models.User, at time.Time) (*models.Complaint, error)
	AssignComplaint(ctx context.Context, id string, teacher *models.User, at time.Time) (*models.Complaint, error)
	ResolveComplaint(ctx context.Context, id, teacherID, response string, at time.Time) (*models.Complaint, error)
}

// Service is the gorm-backed Storage. Redis is optional and only used for
// the complaint event channel.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	// MaxAssignAttempts bounds the FCFS claim loop.
	MaxAssignAttempts int
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:                db,
		Redis:             rdb,
		MaxAssignAttempts: config.DefaultFCFSMaxAttempts,
	}
}

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
	)
}

// notFound maps gorm's not-found error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
