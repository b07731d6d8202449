package storage

import (
	"complaintdesk/backend/internal/models"
	"context"
	"errors"

	"gorm.io/gorm"
)

// CreateUser inserts a new account. A taken email or telegram id yields ErrDuplicate.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("telegram_id = ?", telegramID).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// ListUsersByRole returns users of a role, oldest account first.
func (s *Service) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at asc, id asc").
		Find(&users).Error
	return users, err
}

// SetUserTelegramID links a chat account to the user.
func (s *Service) SetUserTelegramID(ctx context.Context, userID string, telegramID int64) error {
	res := s.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("telegram_id", telegramID)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
