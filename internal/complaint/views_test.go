package complaint_test

import (
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(list []models.Complaint) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func TestListByStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, "a")
	b := f.submit(t, "b")
	_, err := f.svc.Submit(ctx, f.other.Principal(), "theirs", "x")
	require.NoError(t, err)

	mine, err := f.svc.ListByStudent(ctx, f.student.Principal(), f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(mine))

	asAdmin, err := f.svc.ListByStudent(ctx, f.admin.Principal(), f.student.ID)
	require.NoError(t, err)
	assert.Len(t, asAdmin, 2)

	_, err = f.svc.ListByStudent(ctx, f.other.Principal(), f.student.ID)
	assert.ErrorIs(t, err, complaint.ErrAuthorization)

	_, err = f.svc.ListByStudent(ctx, f.t1.Principal(), f.student.ID)
	assert.ErrorIs(t, err, complaint.ErrAuthorization)
}

func TestListByTeacher_SortedByAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.submit(t, "first")
	second := f.submit(t, "second")
	// second gets assigned before first
	_, err := f.svc.AssignManual(ctx, f.admin.Principal(), second.ID, f.t1.ID)
	require.NoError(t, err)
	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), first.ID, f.t1.ID)
	require.NoError(t, err)
	f.assigned(t, "other teacher", f.t2)

	list, err := f.svc.ListByTeacher(ctx, f.t1.Principal(), f.t1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, ids(list))

	_, err = f.svc.ListByTeacher(ctx, f.t2.Principal(), f.t1.ID)
	assert.ErrorIs(t, err, complaint.ErrAuthorization)

	_, err = f.svc.ListByTeacher(ctx, f.admin.Principal(), f.t1.ID)
	assert.NoError(t, err)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, "a")
	b, err := f.svc.Submit(ctx, f.other.Principal(), "b", "b")
	require.NoError(t, err)

	all, err := f.svc.ListAll(ctx, f.admin.Principal())
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(all))

	_, err = f.svc.ListAll(ctx, f.t1.Principal())
	assert.ErrorIs(t, err, complaint.ErrAuthorization)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.assigned(t, "seen", f.t1)

	for _, p := range []models.Principal{f.student.Principal(), f.t1.Principal(), f.admin.Principal()} {
		got, err := f.svc.Get(ctx, p, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
	}
	for _, p := range []models.Principal{f.other.Principal(), f.t2.Principal()} {
		_, err := f.svc.Get(ctx, p, c.ID)
		assert.ErrorIs(t, err, complaint.ErrAuthorization)
	}

	_, err := f.svc.Get(ctx, f.admin.Principal(), "missing")
	assert.ErrorIs(t, err, complaint.ErrNotFound)
}

func TestListTeachersAndPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.submit(t, "a")
	b := f.submit(t, "b")

	teachers, err := f.svc.ListTeachers(ctx, f.admin.Principal())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, f.t1.ID, teachers[0].ID)

	pending, err := f.svc.ListPending(ctx, f.admin.Principal())
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(pending))

	_, err = f.svc.ListTeachers(ctx, f.student.Principal())
	assert.ErrorIs(t, err, complaint.ErrAuthorization)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "pending")
	c := f.assigned(t, "resolved", f.t1)
	_, err := f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "done")
	require.NoError(t, err)

	sum, err := f.svc.Summary(ctx, f.admin.Principal())

	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Pending)
	assert.Equal(t, 1, sum.Resolved)
	assert.Positive(t, sum.MeanTimeToResolve)
}

func TestViewFor_AndMatches(t *testing.T) {
	student := models.Principal{UserID: "s1", Role: models.RoleStudent}
	teacher := models.Principal{UserID: "t1", Role: models.RoleTeacher}
	admin := models.Principal{UserID: "a1", Role: models.RoleAdmin}

	sv := complaint.ViewFor(student)
	tv := complaint.ViewFor(teacher)
	av := complaint.ViewFor(admin)
	assert.Equal(t, complaint.View{Kind: complaint.ViewStudent, OwnerID: "s1"}, sv)
	assert.Equal(t, complaint.View{Kind: complaint.ViewTeacher, OwnerID: "t1"}, tv)
	assert.Equal(t, complaint.View{Kind: complaint.ViewAll}, av)

	submitted := models.ComplaintEvent{ComplaintID: "c", StudentID: "s1", Status: models.StatusPending}
	assigned := models.ComplaintEvent{ComplaintID: "c", StudentID: "s1", TeacherID: "t1", Status: models.StatusAssigned}
	elsewhere := models.ComplaintEvent{ComplaintID: "d", StudentID: "s2", TeacherID: "t2", Status: models.StatusAssigned}

	assert.True(t, sv.Matches(submitted))
	assert.False(t, sv.Matches(elsewhere))
	assert.False(t, tv.Matches(submitted))
	assert.True(t, tv.Matches(assigned))
	assert.False(t, tv.Matches(elsewhere))
	assert.True(t, av.Matches(elsewhere))
}

func TestLoadView_UnknownKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.LoadView(context.Background(), complaint.View{Kind: "bogus"})

	assert.Error(t, err)
}
