package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

type memDraftStore struct {
	mu     sync.Mutex
	drafts map[string]domain.AllocationDraft
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{drafts: make(map[string]domain.AllocationDraft)}
}

func (s *memDraftStore) Get(_ context.Context, id string) (*domain.AllocationDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return &d, nil
}

func (s *memDraftStore) Save(_ context.Context, id string, d *domain.AllocationDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[id] = *d
	return nil
}

func (s *memDraftStore) Take(_ context.Context, id string) (*domain.AllocationDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	delete(s.drafts, id)
	return &d, nil
}

func (s *memDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

type memAllocationStore struct {
	mu      sync.Mutex
	nextID  int64
	records []domain.Allocation
	failErr error
}

func (s *memAllocationStore) InsertAllocation(_ context.Context, a *domain.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.nextID++
	a.ID = s.nextID
	s.records = append(s.records, *a)
	return nil
}

func (s *memAllocationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func newTestWorkflow() (*Workflow, *memDraftStore, *memAllocationStore) {
	drafts := newMemDraftStore()
	store := &memAllocationStore{}
	return New(drafts, store, catalog.Default()), drafts, store
}

func assemblySession(id string) *Session {
	return &Session{
		ID: id,
		User: &domain.User{
			ID:      1,
			Name:    "Asha",
			Email:   "asha@company.com",
			Role:    "Assembly",
			SubRole: "Floor Conveyor (1-5)",
		},
	}
}

var validShift = ShiftInput{
	Date:        "2026-10-19",
	Shift:       "A",
	ShiftTime:   "06:00",
	ShiftPeriod: "AM",
	AllocTime:   "05:45",
	AllocPeriod: "AM",
}

var validSelection = SelectionInput{Station: "FC3", Operator: "Worker C2 (406)"}

func TestSubmitShift_JoinsTimeAndPeriod(t *testing.T) {
	w, _, _ := newTestWorkflow()
	ctx := context.Background()

	in := validShift
	in.ShiftTime, in.ShiftPeriod = "10:15", "PM"
	in.AllocTime, in.AllocPeriod = "9:50", "PM"

	draft, err := w.SubmitShift(ctx, assemblySession("s1"), in)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStepShiftSubmitted, draft.Step)
	assert.Equal(t, "10:15 PM", draft.Shift.ShiftTime)
	assert.Equal(t, "9:50 PM", draft.Shift.AllocTime)
	assert.Equal(t, "Asha", draft.Shift.AllocatedBy)

	stored, err := w.Draft(ctx, assemblySession("s1"))
	require.NoError(t, err)
	assert.Equal(t, draft.Shift, stored.Shift)
}

func TestUnauthenticated(t *testing.T) {
	w, _, _ := newTestWorkflow()
	ctx := context.Background()

	for _, sess := range []*Session{nil, {ID: "s1"}, {User: &domain.User{}}} {
		_, err := w.SubmitShift(ctx, sess, validShift)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = w.SubmitSelection(ctx, sess, validSelection)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = w.Summary(ctx, sess)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = w.Commit(ctx, sess)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = w.Draft(ctx, sess)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		_, err = w.Options(sess)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	}
}

func TestSubmitSelection_RequiresStepOne(t *testing.T) {
	w, _, _ := newTestWorkflow()

	_, err := w.SubmitSelection(context.Background(), assemblySession("s1"), validSelection)
	assert.ErrorIs(t, err, domain.ErrStepOutOfOrder)
}

func TestSubmitSelection_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   SelectionInput
		want error
	}{
		{name: "malformed token", in: SelectionInput{Station: "FC1", Operator: "Worker C1"}, want: domain.ErrMalformedOperatorToken},
		{name: "station of another sub-role", in: SelectionInput{Station: "FC6", Operator: "Worker C1 (405)"}, want: domain.ErrStationNotInCatalog},
		{name: "operator of another role", in: SelectionInput{Station: "FC1", Operator: "Worker 101 (101)"}, want: domain.ErrOperatorNotInCatalog},
		{name: "wrong code", in: SelectionInput{Station: "FC1", Operator: "Worker C1 (999)"}, want: domain.ErrOperatorNotInCatalog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, _ := newTestWorkflow()
			ctx := context.Background()
			sess := assemblySession("s1")

			_, err := w.SubmitShift(ctx, sess, validShift)
			require.NoError(t, err)

			_, err = w.SubmitSelection(ctx, sess, tt.in)
			assert.ErrorIs(t, err, tt.want)

			draft, err := w.Draft(ctx, sess)
			require.NoError(t, err)
			assert.Equal(t, domain.DraftStepShiftSubmitted, draft.Step)
			assert.Nil(t, draft.Selection)
		})
	}
}

func TestSubmitSelection_EmptyCatalog(t *testing.T) {
	w, _, _ := newTestWorkflow()
	ctx := context.Background()
	sess := &Session{ID: "s1", User: &domain.User{Name: "Ravi", Role: "Warehouse"}}

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)

	opts, err := w.Options(sess)
	require.NoError(t, err)
	assert.Empty(t, opts.Stations)

	_, err = w.SubmitSelection(ctx, sess, SelectionInput{Station: "Dock", Operator: "X (1)"})
	assert.ErrorIs(t, err, domain.ErrEmptyCatalogSelection)
}

func TestSubmitSelection_IgnoresClientRole(t *testing.T) {
	w, _, _ := newTestWorkflow()
	ctx := context.Background()
	sess := &Session{ID: "s1", User: &domain.User{Name: "Ben", Role: "Body Shop", SubRole: "Floor Conveyor (1-5)"}}

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)

	_, err = w.SubmitSelection(ctx, sess, validSelection)
	assert.ErrorIs(t, err, domain.ErrStationNotInCatalog)

	draft, err := w.SubmitSelection(ctx, sess, SelectionInput{Station: "Station 2", Operator: "Worker 103 (103)"})
	require.NoError(t, err)
	assert.Equal(t, "Worker 103", draft.Selection.OperatorName)
	assert.Equal(t, "103", draft.Selection.OperatorCode)
}

func TestCommit_HappyPath(t *testing.T) {
	w, drafts, store := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)
	_, err = w.SubmitSelection(ctx, sess, validSelection)
	require.NoError(t, err)

	summary, err := w.Summary(ctx, sess)
	require.NoError(t, err)
	assert.Zero(t, summary.ID)
	assert.Equal(t, "FC3", summary.Station)

	a, err := w.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "2026-10-19", a.Date)
	assert.Equal(t, "A", a.Shift)
	assert.Equal(t, "06:00 AM", a.ShiftTime)
	assert.Equal(t, "05:45 AM", a.AllocTime)
	assert.Equal(t, "Asha", a.AllocatedBy)
	assert.Equal(t, "Assembly", a.Role)
	assert.Equal(t, "Floor Conveyor (1-5)", a.SubRole)
	assert.Equal(t, "Worker C2", a.OperatorName)
	assert.Equal(t, "406", a.OperatorCode)

	_, err = drafts.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.Equal(t, 1, store.count())
}

func TestCommit_Twice(t *testing.T) {
	w, _, store := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)
	_, err = w.SubmitSelection(ctx, sess, validSelection)
	require.NoError(t, err)

	_, err = w.Commit(ctx, sess)
	require.NoError(t, err)

	_, err = w.Commit(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrMissingDraft)
	assert.Equal(t, 1, store.count())
}

func TestCommit_IncompleteDraft(t *testing.T) {
	w, drafts, store := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.Commit(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrMissingDraft)

	_, err = w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)

	_, err = w.Summary(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrMissingDraft)
	_, err = w.Commit(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrMissingDraft)
	assert.Zero(t, store.count())

	// 第一步的数据仍然保留
	d, err := drafts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStepShiftSubmitted, d.Step)
}

func TestCommit_PersistenceFailureKeepsDraft(t *testing.T) {
	w, drafts, store := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)
	_, err = w.SubmitSelection(ctx, sess, validSelection)
	require.NoError(t, err)

	dbErr := errors.New("connection reset")
	store.failErr = dbErr

	_, err = w.Commit(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailure)
	assert.ErrorIs(t, err, dbErr)

	d, err := drafts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, d.IsComplete())

	// 恢复后重试成功
	store.failErr = nil
	a, err := w.Commit(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "FC3", a.Station)
	assert.Equal(t, 1, store.count())
}

func TestCommit_ConcurrentSessions(t *testing.T) {
	w, _, store := newTestWorkflow()
	ctx := context.Background()

	const n = 20
	sessions := make([]*Session, n)
	for i := range sessions {
		sessions[i] = assemblySession(fmt.Sprintf("session-%d", i))
		_, err := w.SubmitShift(ctx, sessions[i], validShift)
		require.NoError(t, err)
		_, err = w.SubmitSelection(ctx, sessions[i], validSelection)
		require.NoError(t, err)
	}

	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := w.Commit(ctx, sessions[i])
			if assert.NoError(t, err) {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, id := range ids {
		assert.NotZero(t, id)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, n, store.count())
}

func TestCommit_SameSessionRace(t *testing.T) {
	w, _, store := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)
	_, err = w.SubmitSelection(ctx, sess, validSelection)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Commit(ctx, sess)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.count())
}

func TestDiscard(t *testing.T) {
	w, drafts, _ := newTestWorkflow()
	ctx := context.Background()
	sess := assemblySession("s1")

	_, err := w.SubmitShift(ctx, sess, validShift)
	require.NoError(t, err)

	require.NoError(t, w.Discard(ctx, "s1"))
	_, err = drafts.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	d, err := w.Draft(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStepEmpty, d.Step)

	assert.NoError(t, w.Discard(ctx, ""))
}
