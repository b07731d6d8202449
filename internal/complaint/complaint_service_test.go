package complaint_test

import (
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"
	"complaintdesk/backend/internal/testutil"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *complaint.Service
	store   *storage.Service
	clock   *testutil.Clock
	student *models.User
	other   *models.User
	t1      *models.User
	t2      *models.User
	admin   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStorage(t)
	clock := testutil.NewClock()
	f := &fixture{store: store, clock: clock}
	f.student = testutil.SeedUser(t, store, "stu", models.RoleStudent, clock.Now())
	f.other = testutil.SeedUser(t, store, "oth", models.RoleStudent, clock.Now())
	f.t1 = testutil.SeedUser(t, store, "t1", models.RoleTeacher, clock.Now())
	f.t2 = testutil.SeedUser(t, store, "t2", models.RoleTeacher, clock.Now())
	f.admin = testutil.SeedUser(t, store, "adm", models.RoleAdmin, clock.Now())

	f.svc = complaint.NewService(store, nil)
	f.svc.Now = clock.Now
	return f
}

// assertInvariants checks every stored complaint against its status rules.
func (f *fixture) assertInvariants(t *testing.T) {
	t.Helper()
	all, err := f.store.ListComplaints(context.Background())
	require.NoError(t, err)
	for _, c := range all {
		assert.NoError(t, c.CheckInvariants())
	}
}

func TestSubmit_CreatesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Submit(ctx, f.student.Principal(), "Broken AC", "Room 204 AC not working")

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Nil(t, c.AssignedTeacherID)
	assert.Nil(t, c.AssignedTeacherName)
	assert.Nil(t, c.AssignedAt)
	assert.Nil(t, c.ResolvedAt)
	assert.Empty(t, c.Response)
	assert.Equal(t, f.student.ID, c.StudentID)
	assert.Equal(t, "stu", c.StudentName)
	assert.False(t, c.CreatedAt.IsZero())

	stored, err := f.store.GetComplaintByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Broken AC", stored.Title)
	assert.Equal(t, models.StatusPending, stored.Status)
	f.assertInvariants(t)
}

func TestSubmit_TrimsInput(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Submit(context.Background(), f.student.Principal(), "  Noisy hall  ", "\tloud\n")

	require.NoError(t, err)
	assert.Equal(t, "Noisy hall", c.Title)
	assert.Equal(t, "loud", c.Description)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name, title, description string
	}{
		{"empty title", "", "desc"},
		{"blank title", "   ", "desc"},
		{"empty description", "title", ""},
		{"title too long", strings.Repeat("x", 201), "desc"},
		{"description too long", "title", strings.Repeat("é", 5001)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, f.student.Principal(), tc.title, tc.description)
			assert.ErrorIs(t, err, complaint.ErrValidation)
			assert.Equal(t, complaint.KindValidation, complaint.KindOf(err))
		})
	}

	all, err := f.store.ListComplaints(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmit_MaxLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.student.Principal(), strings.Repeat("ї", 200), "desc")

	assert.NoError(t, err)
}

func TestSubmit_RequiresStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, p := range []models.Principal{f.t1.Principal(), f.admin.Principal(), {}} {
		_, err := f.svc.Submit(ctx, p, "title", "desc")
		assert.ErrorIs(t, err, complaint.ErrAuthorization)
	}
}

func TestAssignFCFS_EmptyPendingSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	taken := f.submit(t, "old")
	_, err := f.svc.AssignManual(ctx, f.admin.Principal(), taken.ID, f.t1.ID)
	require.NoError(t, err)
	before, err := f.store.ListComplaints(ctx)
	require.NoError(t, err)

	_, err = f.svc.AssignFCFS(ctx, f.admin.Principal())

	assert.ErrorIs(t, err, complaint.ErrNoPendingComplaints)
	after, err := f.store.ListComplaints(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAssignFCFS_OldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.submit(t, "first")
	second := f.submit(t, "second")
	require.True(t, first.CreatedAt.Before(second.CreatedAt))

	got, err := f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	f.assertInvariants(t)
}

func TestAssignFCFS_FirstTeacherOfPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.submit(t, "a")
	f.submit(t, "b")

	a, err := f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)
	b, err := f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)

	assert.Equal(t, f.t1.ID, *a.AssignedTeacherID)
	assert.Equal(t, "t1", *a.AssignedTeacherName)
	assert.Equal(t, f.t1.ID, *b.AssignedTeacherID, "pool order does not rotate")
	require.NotNil(t, a.AssignedAt)
}

func TestAssignFCFS_NoTeachers(t *testing.T) {
	store := testutil.NewStorage(t)
	clock := testutil.NewClock()
	student := testutil.SeedUser(t, store, "stu", models.RoleStudent, clock.Now())
	admin := testutil.SeedUser(t, store, "adm", models.RoleAdmin, clock.Now())
	pending := testutil.SeedComplaint(t, store, student, "lonely", clock.Now())
	svc := complaint.NewService(store, nil)

	_, err := svc.AssignFCFS(context.Background(), admin.Principal())

	assert.ErrorIs(t, err, complaint.ErrNoTeachersAvailable)
	stored, err := store.GetComplaintByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestAssignFCFS_NoTeachersCheckedBeforePending(t *testing.T) {
	store := testutil.NewStorage(t)
	clock := testutil.NewClock()
	admin := testutil.SeedUser(t, store, "adm", models.RoleAdmin, clock.Now())
	svc := complaint.NewService(store, nil)

	_, err := svc.AssignFCFS(context.Background(), admin.Principal())

	assert.ErrorIs(t, err, complaint.ErrNoTeachersAvailable)
	assert.Equal(t, complaint.KindNoTeachersAvailable, complaint.KindOf(err))
}

func TestAssignFCFS_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "a")

	for _, p := range []models.Principal{f.student.Principal(), f.t1.Principal()} {
		_, err := f.svc.AssignFCFS(context.Background(), p)
		assert.ErrorIs(t, err, complaint.ErrAuthorization)
	}
}

func TestAssignFCFS_ConflictRetryExhausted(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "a")
	svc := complaint.NewService(conflictingStorage{Storage: f.store}, nil)

	_, err := svc.AssignFCFS(context.Background(), f.admin.Principal())

	assert.ErrorIs(t, err, complaint.ErrConflictRetryExhausted)
	assert.Equal(t, complaint.KindConflictRetryExhausted, complaint.KindOf(err))
}

func TestAssignFCFS_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	only := f.submit(t, "only")

	const callers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		failures []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.svc.AssignFCFS(ctx, f.admin.Principal())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			winners = append(winners, c.ID)
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, only.ID, winners[0])
	require.Len(t, failures, callers-1)
	for _, err := range failures {
		assert.True(t,
			errors.Is(err, complaint.ErrNoPendingComplaints) || errors.Is(err, complaint.ErrConflictRetryExhausted),
			"unexpected error: %v", err)
	}
	f.assertInvariants(t)
}

func TestAssignManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submit(t, "manual")

	got, err := f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, f.t2.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
	assert.Equal(t, f.t2.ID, *got.AssignedTeacherID)
	assert.Equal(t, "t2", *got.AssignedTeacherName)
	require.NotNil(t, got.AssignedAt)
	f.assertInvariants(t)
}

func TestAssignManual_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submit(t, "manual")

	_, err := f.svc.AssignManual(ctx, f.admin.Principal(), "missing", f.t1.ID)
	assert.ErrorIs(t, err, complaint.ErrNotFound)

	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, "nobody")
	assert.ErrorIs(t, err, complaint.ErrInvalidTeacher)

	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, f.student.ID)
	assert.ErrorIs(t, err, complaint.ErrInvalidTeacher)

	_, err = f.svc.AssignManual(ctx, f.t1.Principal(), c.ID, f.t1.ID)
	assert.ErrorIs(t, err, complaint.ErrAuthorization)

	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, f.t1.ID)
	require.NoError(t, err)

	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, f.t2.ID)
	assert.ErrorIs(t, err, complaint.ErrInvalidState)

	stored, err := f.store.GetComplaintByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, f.t1.ID, *stored.AssignedTeacherID, "losing assignment must not overwrite")
}

func TestAssignManual_AfterFCFSIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submit(t, "raced")

	_, err := f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)

	_, err = f.svc.AssignManual(ctx, f.admin.Principal(), c.ID, f.t2.ID)
	assert.ErrorIs(t, err, complaint.ErrInvalidState)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.assigned(t, "resolve me", f.t1)

	got, err := f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "  Fixed the AC  ")

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Equal(t, "Fixed the AC", got.Response)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.After(*got.AssignedAt))
	f.assertInvariants(t)
}

func TestResolve_PendingIsInvalidState(t *testing.T) {
	f := newFixture(t)
	c := f.submit(t, "never assigned")

	_, err := f.svc.Resolve(context.Background(), f.t1.Principal(), c.ID, "done")

	assert.ErrorIs(t, err, complaint.ErrInvalidState)
}

func TestResolve_TwiceIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.assigned(t, "twice", f.t1)

	_, err := f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "done")
	require.NoError(t, err)
	before, err := f.store.GetComplaintByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "done")

	assert.ErrorIs(t, err, complaint.ErrInvalidState)
	after, err := f.store.GetComplaintByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestResolve_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.assigned(t, "errs", f.t1)

	_, err := f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "   ")
	assert.ErrorIs(t, err, complaint.ErrValidation)

	_, err = f.svc.Resolve(ctx, f.t1.Principal(), "missing", "done")
	assert.ErrorIs(t, err, complaint.ErrNotFound)

	_, err = f.svc.Resolve(ctx, f.t2.Principal(), c.ID, "not mine")
	assert.ErrorIs(t, err, complaint.ErrAuthorization)

	_, err = f.svc.Resolve(ctx, f.admin.Principal(), c.ID, "admin")
	assert.ErrorIs(t, err, complaint.ErrAuthorization)

	stored, err := f.store.GetComplaintByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, stored.Status)
	assert.Empty(t, stored.Response)
}

func TestPublishesEventsAfterEachTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pub := new(MockPublisher)
	f.svc.Publisher = pub

	pub.On("PublishComplaintEvent", mock.Anything, mock.MatchedBy(func(e models.ComplaintEvent) bool {
		return e.Status == models.StatusPending && e.StudentID == f.student.ID && e.TeacherID == ""
	})).Return(nil).Once()
	pub.On("PublishComplaintEvent", mock.Anything, mock.MatchedBy(func(e models.ComplaintEvent) bool {
		return e.Status == models.StatusAssigned && e.TeacherID == f.t1.ID
	})).Return(nil).Once()
	pub.On("PublishComplaintEvent", mock.Anything, mock.MatchedBy(func(e models.ComplaintEvent) bool {
		return e.Status == models.StatusResolved && e.TeacherID == f.t1.ID
	})).Return(nil).Once()

	c, err := f.svc.Submit(ctx, f.student.Principal(), "evt", "evt")
	require.NoError(t, err)
	_, err = f.svc.AssignFCFS(ctx, f.admin.Principal())
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, f.t1.Principal(), c.ID, "ok")
	require.NoError(t, err)

	pub.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	pub := new(MockPublisher)
	f.svc.Publisher = pub
	pub.On("PublishComplaintEvent", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	c, err := f.svc.Submit(context.Background(), f.student.Principal(), "still", "saved")

	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	pub.AssertNumberOfCalls(t, "PublishComplaintEvent", 1)
}

func TestNoEventOnFailure(t *testing.T) {
	f := newFixture(t)
	pub := new(MockPublisher)
	f.svc.Publisher = pub

	_, err := f.svc.AssignFCFS(context.Background(), f.admin.Principal())

	assert.ErrorIs(t, err, complaint.ErrNoPendingComplaints)
	pub.AssertNotCalled(t, "PublishComplaintEvent", mock.Anything, mock.Anything)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, complaint.KindOK, complaint.KindOf(nil))
	assert.Equal(t, complaint.KindInternal, complaint.KindOf(errors.New("boom")))
	assert.Equal(t, complaint.KindNotFound, complaint.KindOf(complaint.ErrNotFound))
	assert.Equal(t, complaint.KindInvalidTeacher, complaint.KindOf(errors.Join(errors.New("ctx"), complaint.ErrInvalidTeacher)))
}

func (f *fixture) submit(t *testing.T, title string) *models.Complaint {
	t.Helper()
	c, err := f.svc.Submit(context.Background(), f.student.Principal(), title, title+" details")
	require.NoError(t, err)
	return c
}

func (f *fixture) assigned(t *testing.T, title string, teacher *models.User) *models.Complaint {
	t.Helper()
	c := f.submit(t, title)
	c, err := f.svc.AssignManual(context.Background(), f.admin.Principal(), c.ID, teacher.ID)
	require.NoError(t, err)
	return c
}
