// Package cache provides Redis-backed infrastructure stores.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/redis/go-redis/v9"
)

// RedisLockStore keeps rate locks in Redis so multiple instances share a
// lock space. Put sets the key with a TTL derived from the preview's
// expiry; Take relies on GETDEL so concurrent takers of the same id see
// exactly one winner.
type RedisLockStore struct {
	client *redis.Client
	prefix string
	clock  lockstore.Clock
	logger *slog.Logger
}

var _ lockstore.Store = (*RedisLockStore)(nil)

// NewRedisLockStore creates a RedisLockStore from redis.Options.
func NewRedisLockStore(
	opt *redis.Options,
	prefix string,
	logger *slog.Logger,
) *RedisLockStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLockStore{
		client: redis.NewClient(opt),
		prefix: prefix,
		clock:  lockstore.SystemClock,
		logger: logger,
	}
}

func (s *RedisLockStore) key(id uuid.UUID) string {
	return s.prefix + "lock:" + id.String()
}

// Put implements lockstore.Store.
func (s *RedisLockStore) Put(ctx context.Context, preview *domain.SwapPreview) error {
	ttl := preview.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("lock %s already expired", preview.LockID)
	}
	data, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("marshaling preview: %w", err)
	}
	if err := s.client.Set(ctx, s.key(preview.LockID), data, ttl).Err(); err != nil {
		s.logger.Error("redis lock put failed", "lock_id", preview.LockID, "error", err)
		return err
	}
	return nil
}

// Peek implements lockstore.Store.
func (s *RedisLockStore) Peek(
	ctx context.Context,
	lockID uuid.UUID,
) (*domain.SwapPreview, error) {
	val, err := s.client.Get(ctx, s.key(lockID)).Result()
	return s.decode(lockID, val, err)
}

// Take implements lockstore.Store. GETDEL removes the key in the same
// round trip, so only one of any concurrent takers gets the payload.
func (s *RedisLockStore) Take(
	ctx context.Context,
	lockID uuid.UUID,
) (*domain.SwapPreview, error) {
	val, err := s.client.GetDel(ctx, s.key(lockID)).Result()
	return s.decode(lockID, val, err)
}

func (s *RedisLockStore) decode(
	lockID uuid.UUID,
	val string,
	err error,
) (*domain.SwapPreview, error) {
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("redis lock read failed", "lock_id", lockID, "error", err)
		return nil, err
	}
	var preview domain.SwapPreview
	if err := json.Unmarshal([]byte(val), &preview); err != nil {
		return nil, fmt.Errorf("unmarshaling preview %s: %w", lockID, err)
	}
	// Redis TTL already bounds the lifetime; this guards clock skew between
	// the Redis server and this process.
	if preview.Expired(s.clock.Now()) {
		return nil, nil
	}
	return &preview, nil
}

// Ping verifies connectivity with a bounded timeout.
func (s *RedisLockStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisLockStore) Close() error {
	return s.client.Close()
}
