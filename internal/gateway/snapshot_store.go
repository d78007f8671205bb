package gateway

import (
	"context"
	"errors"
	"time"

	"prf-forms-be/internal/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "prf:snapshot:"

// SnapshotStore persists the serialized working set per user. It is the
// local durability layer: a write here must succeed before any remote
// save is attempted, so a crash or reload never loses committed edits.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(userId uuid.UUID) string {
	return snapshotKeyPrefix + userId.String()
}

func (s *SnapshotStore) Write(ctx context.Context, userId uuid.UUID, blob []byte) error {
	return s.client.Set(ctx, snapshotKey(userId), blob, s.ttl).Err()
}

func (s *SnapshotStore) Read(ctx context.Context, userId uuid.UUID) ([]byte, error) {
	blob, err := s.client.Get(ctx, snapshotKey(userId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, userId uuid.UUID) error {
	return s.client.Del(ctx, snapshotKey(userId)).Err()
}
