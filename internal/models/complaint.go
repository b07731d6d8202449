package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a complaint. A complaint only ever moves
// forward: pending -> assigned -> resolved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAssigned Status = "assigned"
	StatusResolved Status = "resolved"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusResolved:
		return true
	}
	return false
}

// Complaint is a single complaint filed by a student.
// Teacher fields and timestamps are pointers because they stay NULL until the
// matching transition happens.
type Complaint struct {
	// ID is the complaint UUID, generated in BeforeCreate.
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	// Title and Description are supplied by the student and never edited.
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	// StudentID and StudentName identify the submitter.
	StudentID   string `gorm:"type:varchar(36);not null;index" json:"student_id"`
	StudentName string `gorm:"type:text;not null" json:"student_name"`

	Status Status `gorm:"type:varchar(16);not null;index:idx_complaint_status_created,priority:1" json:"status"`

	AssignedTeacherID   *string `gorm:"type:varchar(36);index" json:"assigned_teacher_id"`
	AssignedTeacherName *string `gorm:"type:text" json:"assigned_teacher_name"`

	// Response is empty until the complaint is resolved.
	Response string `gorm:"type:text;not null" json:"response"`

	CreatedAt  time.Time  `gorm:"not null;index:idx_complaint_status_created,priority:2" json:"created_at"`
	AssignedAt *time.Time `json:"assigned_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// BeforeCreate is a GORM hook that generates a UUID when ID is empty.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// CheckInvariants verifies that the assignment and response fields agree
// with Status.
func (c *Complaint) CheckInvariants() error {
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("complaint %s: created_at is not set", c.ID)
	}
	assigned := c.AssignedTeacherID != nil
	switch c.Status {
	case StatusPending:
		if assigned || c.AssignedAt != nil {
			return fmt.Errorf("complaint %s: pending but has an assigned teacher", c.ID)
		}
		if c.Response != "" || c.ResolvedAt != nil {
			return fmt.Errorf("complaint %s: pending but has a response", c.ID)
		}
	case StatusAssigned:
		if !assigned || c.AssignedAt == nil {
			return fmt.Errorf("complaint %s: assigned without a teacher", c.ID)
		}
		if c.Response != "" || c.ResolvedAt != nil {
			return fmt.Errorf("complaint %s: assigned but has a response", c.ID)
		}
	case StatusResolved:
		if !assigned || c.AssignedAt == nil {
			return fmt.Errorf("complaint %s: resolved without a teacher", c.ID)
		}
		if c.Response == "" || c.ResolvedAt == nil {
			return fmt.Errorf("complaint %s: resolved without a response", c.ID)
		}
	default:
		return fmt.Errorf("complaint %s: unknown status %q", c.ID, c.Status)
	}
	return nil
}
