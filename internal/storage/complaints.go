package storage

import (
	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// CreateComplaint inserts c as given. Status and timestamps are set by the caller.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *Service) GetComplaintByID(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Service) ListComplaintsByStudent(ctx context.Context, studentID string) ([]models.Complaint, error) {
	var list []models.Complaint
	err := s.DB.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc, id desc").
		Find(&list).Error
	return list, err
}

func (s *Service) ListComplaintsByTeacher(ctx context.Context, teacherID string) ([]models.Complaint, error) {
	var list []models.Complaint
	err := s.DB.WithContext(ctx).
		Where("assigned_teacher_id = ?", teacherID).
		Order("assigned_at desc, id desc").
		Find(&list).Error
	return list, err
}

func (s *Service) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	var list []models.Complaint
	err := s.DB.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&list).Error
	return list, err
}

// ListComplaintsByStatus returns complaints in one state, oldest first.
func (s *Service) ListComplaintsByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error) {
	var list []models.Complaint
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc, id asc").
		Find(&list).Error
	return list, err
}

// AssignOldestPending claims the oldest pending complaint for teacher.
// Each attempt selects the candidate and updates it only while it is still
// pending. A lost race retries with the next oldest, up to MaxAssignAttempts.
func (s *Service) AssignOldestPending(ctx context.Context, teacher *models.User, at time.Time) (*models.Complaint, error) {
	attempts := s.MaxAssignAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		claimed, err := s.claimOldest(ctx, teacher, at)
		switch {
		case err == nil:
			metrics.FCFSAttempts.Observe(float64(attempt))
			return claimed, nil
		case errors.Is(err, ErrStateChanged):
			slog.Debug("fcfs claim lost race, retrying", "attempt", attempt, "teacher_id", teacher.ID)
			continue
		default:
			return nil, err
		}
	}

	metrics.FCFSAttempts.Observe(float64(attempts))
	return nil, ErrConflict
}

func (s *Service) claimOldest(ctx context.Context, teacher *models.User, at time.Time) (*models.Complaint, error) {
	var (
		claimed models.Complaint
		lost    bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldest models.Complaint
		err := tx.Where("status = ?", models.StatusPending).
			Order("created_at asc, id asc").
			Take(&oldest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPending
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.Complaint{}).
			Where("id = ? AND status = ?", oldest.ID, models.StatusPending).
			Updates(assignColumns(teacher, at))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Nothing was written, so the transaction commits as a no-op.
			lost = true
			return nil
		}

		return tx.Where("id = ?", oldest.ID).Take(&claimed).Error
	})
	if err != nil {
		return nil, err
	}
	if lost {
		return nil, ErrStateChanged
	}
	return &claimed, nil
}

// AssignComplaint moves one complaint from pending to assigned.
// ErrNotFound if id is unknown, ErrStateChanged if it is no longer pending.
func (s *Service) AssignComplaint(ctx context.Context, id string, teacher *models.User, at time.Time) (*models.Complaint, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(assignColumns(teacher, at))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.missOrChanged(ctx, id)
	}
	return s.GetComplaintByID(ctx, id)
}

// ResolveComplaint moves one complaint from assigned to resolved, only for
// the teacher it is assigned to.
func (s *Service) ResolveComplaint(ctx context.Context, id, teacherID, response string, at time.Time) (*models.Complaint, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ? AND assigned_teacher_id = ?", id, models.StatusAssigned, teacherID).
		Updates(map[string]interface{}{
			"status":      models.StatusResolved,
			"response":    response,
			"resolved_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.missOrChanged(ctx, id)
	}
	return s.GetComplaintByID(ctx, id)
}

func (s *Service) missOrChanged(ctx context.Context, id string) error {
	if _, err := s.GetComplaintByID(ctx, id); err != nil {
		return err
	}
	return ErrStateChanged
}

func assignColumns(teacher *models.User, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":                models.StatusAssigned,
		"assigned_teacher_id":   teacher.ID,
		"assigned_teacher_name": teacher.Name,
		"assigned_at":           at,
	}
}
