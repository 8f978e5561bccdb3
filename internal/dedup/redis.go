package dedup

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
)

// markScript clears the set when it has reached the cap, then adds the id.
// It returns {added, cleared}.
var markScript = redis.NewScript(`
local cleared = 0
local cap = tonumber(ARGV[2])
if cap > 0 and redis.call('SCARD', KEYS[1]) >= cap then
	if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
		return {0, 0}
	end
	redis.call('DEL', KEYS[1])
	cleared = 1
end
return {redis.call('SADD', KEYS[1], ARGV[1]), cleared}
`)

// RedisStore keeps sent order ids in a Redis set shared by every replica.
type RedisStore struct {
	client  *redis.Client
	key     string
	maxSize int
}

func NewRedisStore(client *redis.Client, key string, maxSize int) *RedisStore {
	return &RedisStore{client: client, key: key, maxSize: maxSize}
}

func (s *RedisStore) Seen(ctx context.Context, orderID string) (bool, error) {
	found, err := s.client.SIsMember(ctx, s.key, orderID).Result()
	if err != nil {
		return false, fmt.Errorf("Seen: %w", err)
	}
	return found, nil
}

func (s *RedisStore) Mark(ctx context.Context, orderID string) (bool, error) {
	res, err := markScript.Run(ctx, s.client, []string{s.key}, orderID, s.maxSize).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("Mark: %w", err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("Mark: unexpected script reply %v", res)
	}
	if res[1] == 1 {
		metrics.DedupResetsTotal.Inc()
	}
	return res[0] == 1, nil
}

func (s *RedisStore) Forget(ctx context.Context, orderID string) error {
	if err := s.client.SRem(ctx, s.key, orderID).Err(); err != nil {
		return fmt.Errorf("Forget: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Ping: %w", err)
	}
	return nil
}
