package follower

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"spot_bot/internal/models"
)

// DedupStore remembers which feed ids were already handled.
type DedupStore interface {
	Seen(ctx context.Context, id models.SignalID) (bool, error)
	Mark(ctx context.Context, id models.SignalID) error
}

// MemoryDedup forgets everything on restart.
type MemoryDedup struct {
	mu  sync.Mutex
	ids map[models.SignalID]struct{}
}

func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{ids: make(map[models.SignalID]struct{})}
}

func (m *MemoryDedup) Seen(_ context.Context, id models.SignalID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

func (m *MemoryDedup) Mark(_ context.Context, id models.SignalID) error {
	m.mu.Lock()
	m.ids[id] = struct{}{}
	m.mu.Unlock()
	return nil
}

// RedisDedup keeps processed ids in a Redis set so they survive restarts.
type RedisDedup struct {
	client redis.Cmdable
	key    string
}

func NewRedisDedup(client redis.Cmdable, key string) *RedisDedup {
	return &RedisDedup{client: client, key: key}
}

func (r *RedisDedup) Seen(ctx context.Context, id models.SignalID) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, string(id)).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis sismember")
	}
	return ok, nil
}

func (r *RedisDedup) Mark(ctx context.Context, id models.SignalID) error {
	if err := r.client.SAdd(ctx, r.key, string(id)).Err(); err != nil {
		return errors.Wrap(err, "redis sadd")
	}
	return nil
}
