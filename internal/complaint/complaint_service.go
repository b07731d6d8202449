// Package complaint implements the complaint lifecycle: submission,
// first-come-first-served and manual assignment, resolution, and the
// per-role views over the complaint table.
package complaint

import (
	"complaintdesk/backend/internal/metrics"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EventPublisher receives a change event after every committed transition.
type EventPublisher interface {
	PublishComplaintEvent(ctx context.Context, evt models.ComplaintEvent) error
}

// Service handles the business logic for complaints.
type Service struct {
	Storage   storage.Storage
	Publisher EventPublisher
	// Now is the server clock. Defaults to UTC wall time.
	Now func() time.Time

	validate *validator.Validate
}

// NewService creates a new complaint service. p may be nil.
func NewService(s storage.Storage, p EventPublisher) *Service {
	return &Service{
		Storage:   s,
		Publisher: p,
		Now:       func() time.Time { return time.Now().UTC() },
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

type submitInput struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"required,max=5000"`
}

type resolveInput struct {
	Response string `validate:"required,max=5000"`
}

// Submit files a new pending complaint for the calling student.
func (s *Service) Submit(ctx context.Context, p models.Principal, title, description string) (c *models.Complaint, err error) {
	defer func() { metrics.ObserveTransition("submit", KindOf(err)) }()

	if err := require(p, models.CapSubmit); err != nil {
		return nil, err
	}
	in := submitInput{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	c = &models.Complaint{
		Title:       in.Title,
		Description: in.Description,
		StudentID:   p.UserID,
		StudentName: p.Name,
		Status:      models.StatusPending,
		CreatedAt:   s.Now(),
	}
	if err := s.Storage.CreateComplaint(ctx, c); err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	slog.Info("complaint submitted", "complaint_id", c.ID, "student_id", c.StudentID)
	s.publish(ctx, c)
	return c, nil
}

// AssignFCFS gives the oldest pending complaint to the first teacher of the pool.
func (s *Service) AssignFCFS(ctx context.Context, p models.Principal) (c *models.Complaint, err error) {
	defer func() { metrics.ObserveTransition("assign_fcfs", KindOf(err)) }()

	if err := require(p, models.CapAssign); err != nil {
		return nil, err
	}
	pool, err := s.Storage.ListUsersByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoTeachersAvailable
	}
	teacher := &pool[0]

	c, err = s.Storage.AssignOldestPending(ctx, teacher, s.Now())
	switch {
	case errors.Is(err, storage.ErrNoPending):
		return nil, ErrNoPendingComplaints
	case errors.Is(err, storage.ErrConflict):
		slog.Warn("fcfs assignment gave up after conflicts", "teacher_id", teacher.ID)
		return nil, ErrConflictRetryExhausted
	case err != nil:
		return nil, fmt.Errorf("assign oldest pending: %w", err)
	}

	slog.Info("complaint assigned", "mode", "fcfs", "complaint_id", c.ID, "teacher_id", teacher.ID)
	s.publish(ctx, c)
	return c, nil
}

// AssignManual gives a specific pending complaint to a specific teacher.
func (s *Service) AssignManual(ctx context.Context, p models.Principal, complaintID, teacherID string) (c *models.Complaint, err error) {
	defer func() { metrics.ObserveTransition("assign_manual", KindOf(err)) }()

	if err := require(p, models.CapAssign); err != nil {
		return nil, err
	}
	teacher, err := s.Storage.GetUserByID(ctx, teacherID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no user %q", ErrInvalidTeacher, teacherID)
	}
	if err != nil {
		return nil, fmt.Errorf("load teacher: %w", err)
	}
	if teacher.Role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: user %q is a %s", ErrInvalidTeacher, teacherID, teacher.Role)
	}

	c, err = s.Storage.AssignComplaint(ctx, complaintID, teacher, s.Now())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, complaintID)
	case errors.Is(err, storage.ErrStateChanged):
		return nil, fmt.Errorf("%w: complaint %s is no longer pending", ErrInvalidState, complaintID)
	case err != nil:
		return nil, fmt.Errorf("assign complaint: %w", err)
	}

	slog.Info("complaint assigned", "mode", "manual", "complaint_id", c.ID, "teacher_id", teacher.ID)
	s.publish(ctx, c)
	return c, nil
}

// Resolve records the assigned teacher's response and closes the complaint.
func (s *Service) Resolve(ctx context.Context, p models.Principal, complaintID, response string) (c *models.Complaint, err error) {
	defer func() { metrics.ObserveTransition("resolve", KindOf(err)) }()

	if err := require(p, models.CapResolve); err != nil {
		return nil, err
	}
	in := resolveInput{Response: strings.TrimSpace(response)}
	if err := s.check(in); err != nil {
		return nil, err
	}

	current, err := s.Storage.GetComplaintByID(ctx, complaintID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, complaintID)
	}
	if err != nil {
		return nil, fmt.Errorf("load complaint: %w", err)
	}
	switch current.Status {
	case models.StatusResolved:
		return nil, fmt.Errorf("%w: complaint %s is already resolved", ErrInvalidState, complaintID)
	case models.StatusPending:
		return nil, fmt.Errorf("%w: complaint %s is not assigned yet", ErrInvalidState, complaintID)
	}
	if current.AssignedTeacherID == nil || *current.AssignedTeacherID != p.UserID {
		return nil, fmt.Errorf("%w: complaint %s is assigned to another teacher", ErrAuthorization, complaintID)
	}

	c, err = s.Storage.ResolveComplaint(ctx, complaintID, p.UserID, in.Response, s.Now())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, complaintID)
	case errors.Is(err, storage.ErrStateChanged):
		return nil, fmt.Errorf("%w: complaint %s changed while resolving", ErrInvalidState, complaintID)
	case err != nil:
		return nil, fmt.Errorf("resolve complaint: %w", err)
	}

	slog.Info("complaint resolved", "complaint_id", c.ID, "teacher_id", p.UserID)
	s.publish(ctx, c)
	return c, nil
}

func (s *Service) publish(ctx context.Context, c *models.Complaint) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishComplaintEvent(ctx, models.EventFor(c, s.Now())); err != nil {
		metrics.EventPublishFailures.Inc()
		slog.Error("publish complaint event", "complaint_id", c.ID, "err", err)
	}
}

// check runs struct validation and folds failures into ErrValidation.
func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func require(p models.Principal, c models.Capability) error {
	if !p.Can(c) {
		return fmt.Errorf("%w: role %q cannot %s", ErrAuthorization, p.Role, c)
	}
	return nil
}
