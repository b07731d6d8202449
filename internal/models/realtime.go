package models

import "time"

// ComplaintEvent is published after every committed transition so live views
// can refresh. It carries only routing data, subscribers reload their view.
type ComplaintEvent struct {
	ComplaintID string    `json:"complaint_id"`
	StudentID   string    `json:"student_id"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	Status      Status    `json:"status"`
	At          time.Time `json:"at"`
}

// EventFor builds the event describing the current state of c.
func EventFor(c *Complaint, at time.Time) ComplaintEvent {
	evt := ComplaintEvent{
		ComplaintID: c.ID,
		StudentID:   c.StudentID,
		Status:      c.Status,
		At:          at,
	}
	if c.AssignedTeacherID != nil {
		evt.TeacherID = *c.AssignedTeacherID
	}
	return evt
}
