package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStateStore keeps narrowing state in Redis so sessions survive
// restarts and can be shared across instances. States are JSON values with
// the session TTL applied on every write.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore creates a Redis-backed StateStore.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

func (s *RedisStateStore) Get(ctx context.Context, sessionKey string) (*State, error) {
	data, err := s.client.Get(ctx, stateKey(sessionKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode state: %w", err)
	}
	return &state, nil
}

func (s *RedisStateStore) Put(ctx context.Context, sessionKey string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey(sessionKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("conversation: failed to persist state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, stateKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to delete state: %w", err)
	}
	return nil
}

func stateKey(sessionKey string) string {
	return fmt.Sprintf("narrowing:%s", sessionKey)
}
