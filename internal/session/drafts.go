package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/station-allocation/backend/internal/domain"
)

// DraftStore 将分配草稿以 JSON 形式保存在 redis 中，键为会话 ID
type DraftStore struct {
	client     *redis.Client
	expiration time.Duration
	timeout    time.Duration
}

func NewDraftStore(client *redis.Client, expiration time.Duration, timeout time.Duration) *DraftStore {
	return &DraftStore{
		client:     client,
		expiration: expiration,
		timeout:    timeout,
	}
}

func draftKey(sessionID string) string {
	return fmt.Sprintf("draft_%s", sessionID)
}

func (s *DraftStore) Get(ctx context.Context, sessionID string) (*domain.AllocationDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, draftKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}

	return decode(data)
}

func (s *DraftStore) Save(ctx context.Context, sessionID string, draft *domain.AllocationDraft) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, draftKey(sessionID), data, s.expiration).Err()
}

// Take 使用 GETDEL，保证同一份草稿只会被一次提交取走
func (s *DraftStore) Take(ctx context.Context, sessionID string) (*domain.AllocationDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.GetDel(ctx, draftKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}

	return decode(data)
}

func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.client.Del(ctx, draftKey(sessionID)).Err()
}

func decode(data []byte) (*domain.AllocationDraft, error) {
	draft := &domain.AllocationDraft{}
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("草稿数据损坏: %w", err)
	}
	return draft, nil
}
