// Package auth registers and logs in users and turns session tokens back
// into principals.
package auth

import (
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the part of the record store auth needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Session is a logged-in user with their bearer token.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type Service struct {
	Users   UserStore
	Revoker TokenRevoker

	secret []byte
	ttl    time.Duration
	now    func() time.Time

	validate *validator.Validate
}

// NewService builds an auth service signing HS256 tokens with secret.
// A zero ttl means config.DefaultSessionTTL.
func NewService(users UserStore, revoker TokenRevoker, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &Service{
		Users:    users,
		Revoker:  revoker,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		validate: validator.New(),
	}
}

// SetClock replaces the time source for issuing and checking tokens.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register creates a student account and logs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	user, err := s.CreateUser(ctx, email, password, name, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateUser creates an account with any role. Used for provisioning
// teachers and admins.
func (s *Service) CreateUser(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if s.validate.Var(email, "required,email") != nil {
		return nil, ErrInvalidEmail
	}
	if len([]rune(password)) < config.MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if name == "" || len([]rune(name)) > config.MaxNameLength {
		return nil, ErrNameRequired
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, ErrInvalidRole
	}

	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks the password and, when expectedRole is set, that the account
// has that role.
func (s *Service) Login(ctx context.Context, email, password string, expectedRole models.Role) (*Session, error) {
	user, err := s.Users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if expectedRole != "" && expectedRole != user.Role {
		return nil, fmt.Errorf("%w: you selected %s but your account is registered as %s",
			ErrRoleMismatch, expectedRole, user.Role)
	}
	return s.issue(user)
}

// Logout revokes the token until it would have expired. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if s.Revoker == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(s.now()))
}

// Authenticate resolves a bearer token to the current principal. The role
// comes from the stored user, not the token.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	claims, err := s.parse(token)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if s.Revoker != nil {
		revoked, err := s.Revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return models.Principal{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return models.Principal{}, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
		}
	}
	user, err := s.Users.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Principal{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}
	if err != nil {
		return models.Principal{}, fmt.Errorf("load user: %w", err)
	}
	return user.Principal(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
