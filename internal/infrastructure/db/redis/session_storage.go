package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionKeyPrefix is the storage key of the persisted session record.
const SessionKeyPrefix = "plan2protect_user"

// SessionStorage persists one serialized session under
// plan2protect_user:<namespace>. A zero ttl keeps the record until cleared.
type SessionStorage struct {
	client commands
	key    string
	ttl    time.Duration
}

func NewSessionStorage(client *redis.Client, namespace string, ttl time.Duration) *SessionStorage {
	return &SessionStorage{client: client, key: key(SessionKeyPrefix, namespace), ttl: ttl}
}

func (s *SessionStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return data, nil
}

func (s *SessionStorage) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStorage) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
