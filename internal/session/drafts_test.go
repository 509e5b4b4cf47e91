package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

func newTestStore(t *testing.T) (*DraftStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewDraftStore(client, time.Hour, 5*time.Second), mr
}

func completeDraft(t *testing.T) *domain.AllocationDraft {
	t.Helper()

	d := &domain.AllocationDraft{}
	d.SetShift(domain.ShiftDetails{Date: "2026-10-19", Shift: "B", ShiftTime: "02:00 PM", AllocTime: "01:30 PM", AllocatedBy: "Asha"})
	require.NoError(t, d.SetSelection(domain.StationSelection{Station: "FC1", OperatorName: "Worker C1", OperatorCode: "405"}))
	return d
}

func TestDraftStore_SaveGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	draft := completeDraft(t)
	require.NoError(t, s.Save(ctx, "abc", draft))
	assert.True(t, mr.Exists("draft_abc"))
	assert.Equal(t, time.Hour, mr.TTL("draft_abc"))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStepSelectionSubmitted, got.Step)
	assert.Equal(t, draft.Shift, got.Shift)
	assert.Equal(t, draft.Selection, got.Selection)
}

func TestDraftStore_Expiration(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", completeDraft(t)))
	mr.FastForward(2 * time.Hour)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestDraftStore_TakeOnce(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", completeDraft(t)))

	var taken atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "abc"); err == nil {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), taken.Load())
	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
}

func TestDraftStore_Delete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "abc", completeDraft(t)))
	require.NoError(t, s.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("draft_abc"))

	// 删除不存在的草稿不是错误
	assert.NoError(t, s.Delete(ctx, "missing"))
}

func TestDraftStore_Corrupted(t *testing.T) {
	s, mr := newTestStore(t)

	require.NoError(t, mr.Set("draft_abc", "not json"))
	_, err := s.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDraftNotFound)
}
