package complaint

import (
	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"slices"
)

// ViewKind names which complaints a view shows.
type ViewKind string

const (
	ViewStudent ViewKind = "student"
	ViewTeacher ViewKind = "teacher"
	ViewAll     ViewKind = "all"
)

// View is a live query: the complaints of one student, the complaints
// assigned to one teacher, or everything.
type View struct {
	Kind    ViewKind `json:"kind"`
	OwnerID string   `json:"owner_id,omitempty"`
}

// ViewFor returns the default view for a principal's role.
func ViewFor(p models.Principal) View {
	switch p.Role {
	case models.RoleStudent:
		return View{Kind: ViewStudent, OwnerID: p.UserID}
	case models.RoleTeacher:
		return View{Kind: ViewTeacher, OwnerID: p.UserID}
	default:
		return View{Kind: ViewAll}
	}
}

// Matches reports whether evt can change the result set of v.
// A teacher view matches on the event's teacher, which is only set once the
// complaint has been assigned.
func (v View) Matches(evt models.ComplaintEvent) bool {
	switch v.Kind {
	case ViewStudent:
		return evt.StudentID == v.OwnerID
	case ViewTeacher:
		return evt.TeacherID != "" && evt.TeacherID == v.OwnerID
	case ViewAll:
		return true
	}
	return false
}

// LoadView returns the current, display-sorted result set of v.
// It does no authorization; callers build views from ViewFor or after a
// visibility check.
func (s *Service) LoadView(ctx context.Context, v View) ([]models.Complaint, error) {
	switch v.Kind {
	case ViewStudent:
		list, err := s.Storage.ListComplaintsByStudent(ctx, v.OwnerID)
		if err != nil {
			return nil, err
		}
		sortByCreatedDesc(list)
		return list, nil
	case ViewTeacher:
		list, err := s.Storage.ListComplaintsByTeacher(ctx, v.OwnerID)
		if err != nil {
			return nil, err
		}
		sortByAssignedDesc(list)
		return list, nil
	case ViewAll:
		return s.Storage.ListComplaints(ctx)
	}
	return nil, fmt.Errorf("unknown view kind %q", v.Kind)
}

// ListByStudent lists a student's complaints, newest first.
// Students may only list their own; admins may list anyone's.
func (s *Service) ListByStudent(ctx context.Context, p models.Principal, studentID string) ([]models.Complaint, error) {
	if !(p.Can(models.CapViewAll) || (p.Can(models.CapViewOwn) && p.UserID == studentID)) {
		return nil, fmt.Errorf("%w: cannot view complaints of student %s", ErrAuthorization, studentID)
	}
	return s.LoadView(ctx, View{Kind: ViewStudent, OwnerID: studentID})
}

// ListByTeacher lists complaints assigned to a teacher, most recently assigned first.
func (s *Service) ListByTeacher(ctx context.Context, p models.Principal, teacherID string) ([]models.Complaint, error) {
	if !(p.Can(models.CapViewAll) || (p.Can(models.CapViewAssigned) && p.UserID == teacherID)) {
		return nil, fmt.Errorf("%w: cannot view complaints of teacher %s", ErrAuthorization, teacherID)
	}
	return s.LoadView(ctx, View{Kind: ViewTeacher, OwnerID: teacherID})
}

// ListAll lists every complaint, newest first. Admin only.
func (s *Service) ListAll(ctx context.Context, p models.Principal) ([]models.Complaint, error) {
	if err := require(p, models.CapViewAll); err != nil {
		return nil, err
	}
	return s.LoadView(ctx, View{Kind: ViewAll})
}

// Get returns one complaint if the caller may see it: its student, its
// assigned teacher, or an admin.
func (s *Service) Get(ctx context.Context, p models.Principal, id string) (*models.Complaint, error) {
	c, err := s.Storage.GetComplaintByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !canSee(p, c) {
		return nil, fmt.Errorf("%w: cannot view complaint %s", ErrAuthorization, id)
	}
	return c, nil
}

// ListTeachers returns the teacher pool for manual assignment. Admin only.
func (s *Service) ListTeachers(ctx context.Context, p models.Principal) ([]models.User, error) {
	if err := require(p, models.CapAssign); err != nil {
		return nil, err
	}
	return s.Storage.ListUsersByRole(ctx, models.RoleTeacher)
}

// ListPending returns pending complaints in FCFS order. Admin only.
func (s *Service) ListPending(ctx context.Context, p models.Principal) ([]models.Complaint, error) {
	if err := require(p, models.CapViewAll); err != nil {
		return nil, err
	}
	return s.Storage.ListComplaintsByStatus(ctx, models.StatusPending)
}

// Summary returns counts per status and mean turnaround. Admin only.
func (s *Service) Summary(ctx context.Context, p models.Principal) (analysis.Summary, error) {
	if err := require(p, models.CapViewAll); err != nil {
		return analysis.Summary{}, err
	}
	list, err := s.Storage.ListComplaints(ctx)
	if err != nil {
		return analysis.Summary{}, err
	}
	return analysis.Summarize(list), nil
}

func canSee(p models.Principal, c *models.Complaint) bool {
	switch {
	case p.Can(models.CapViewAll):
		return true
	case p.Can(models.CapViewOwn):
		return c.StudentID == p.UserID
	case p.Can(models.CapViewAssigned):
		return c.AssignedTeacherID != nil && *c.AssignedTeacherID == p.UserID
	}
	return false
}

func sortByCreatedDesc(list []models.Complaint) {
	slices.SortStableFunc(list, func(a, b models.Complaint) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// sortByAssignedDesc puts unassigned records last.
func sortByAssignedDesc(list []models.Complaint) {
	slices.SortStableFunc(list, func(a, b models.Complaint) int {
		switch {
		case a.AssignedAt == nil && b.AssignedAt == nil:
			return 0
		case a.AssignedAt == nil:
			return 1
		case b.AssignedAt == nil:
			return -1
		}
		return b.AssignedAt.Compare(*a.AssignedAt)
	})
}
