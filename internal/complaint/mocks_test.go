package complaint_test

import (
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishComplaintEvent(ctx context.Context, evt models.ComplaintEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// conflictingStorage is a real store whose FCFS claim always reports conflicts.
type conflictingStorage struct {
	storage.Storage
}

func (conflictingStorage) AssignOldestPending(ctx context.Context, teacher *models.User, at time.Time) (*models.Complaint, error) {
	return nil, storage.ErrConflict
}
