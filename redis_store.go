package courier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisRecord is the persisted envelope. ExpiresAt is unix nanos, 0 = never.
// Response.Raw carries a json:"-" tag, so raw transport handles are stripped
// on marshal.
type redisRecord struct {
	Value     *Response `json:"value"`
	ExpiresAt int64     `json:"expiresAt"`
}

// RedisStore is a Store persisted in Redis. All keys are namespaced under a
// prefix so Clear only removes entries the store owns. Corrupted or
// legacy-shaped records are treated as a miss and deleted.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// DefaultRedisPrefix namespaces keys when no prefix is supplied.
const DefaultRedisPrefix = "courier:"

// NewRedisStore wraps an existing Redis client. An empty prefix falls back to
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) namespaced(key string) string {
	return s.prefix + key
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) (*Response, bool, error) {
	raw, err := s.client.Get(ctx, s.namespaced(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Value == nil {
		// Corrupted or legacy-shaped record: self-heal by dropping it.
		_ = s.client.Del(ctx, s.namespaced(key)).Err()
		return nil, false, nil
	}
	if rec.ExpiresAt != 0 && time.Now().UnixNano() > rec.ExpiresAt {
		_ = s.client.Del(ctx, s.namespaced(key)).Err()
		return nil, false, nil
	}
	return rec.Value, true, nil
}

// Set implements Store. A positive ttl is also applied as the Redis key
// expiry; non-positive ttls are governed by the record envelope alone.
func (s *RedisStore) Set(ctx context.Context, key string, value *Response, ttl time.Duration) error {
	rec := redisRecord{Value: value}
	if ttl != 0 {
		rec.ExpiresAt = time.Now().Add(ttl).UnixNano()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	var expiry time.Duration
	if ttl > 0 {
		expiry = ttl
	}
	return s.client.Set(ctx, s.namespaced(key), raw, expiry).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespaced(key)).Err()
}

// Clear implements Store: it removes only keys under the store's prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Has implements Store.
func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

// Cleanup implements Cleaner: it sweeps records whose envelope has expired
// even though Redis itself holds no key expiry for them.
func (s *RedisStore) Cleanup(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	now := time.Now().UnixNano()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return err
		}
		var rec redisRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Value == nil {
			_ = s.client.Del(ctx, key).Err()
			continue
		}
		if rec.ExpiresAt != 0 && now > rec.ExpiresAt {
			_ = s.client.Del(ctx, key).Err()
		}
	}
	return iter.Err()
}
