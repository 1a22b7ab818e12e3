package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the authentication engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore is a [Store] backed by Redis, for deployments where multiple
// server processes share session state. Concurrent requests for the same
// session id see last-writer-wins semantics, matching the database-arbitrated
// consistency model of the rest of the engine.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	id     string
}

// NewRedisStore creates a [RedisStore] for the given session id. An empty id
// starts a fresh session. Records expire after ttl unless re-saved.
func NewRedisStore(client redis.UniversalClient, prefix, id string, ttl time.Duration) *RedisStore {
	if id == "" {
		id = uuid.NewString()
	}
	if prefix == "" {
		prefix = "sqlauth:sess"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, id: id}
}

// ID describes the id operation and its observable behavior.
func (s *RedisStore) ID() string { return s.id }

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

// Load describes the load operation and its observable behavior.
func (s *RedisStore) Load(ctx context.Context) (Data, error) {
	raw, err := s.client.Get(ctx, s.key(s.id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, nil
		}
		return Data{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		// A corrupt record is treated as an empty session rather than a
		// fatal condition; the next Save overwrites it.
		return Data{}, nil
	}
	return d, nil
}

// Save describes the save operation and its observable behavior.
func (s *RedisStore) Save(ctx context.Context, d Data) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(s.id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear describes the clear operation and its observable behavior.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(s.id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RegenerateID describes the regenerateid operation and its observable behavior.
func (s *RedisStore) RegenerateID(ctx context.Context) error {
	newID := uuid.NewString()

	// RENAME preserves the record and its TTL; a missing source key simply
	// means an empty session, which needs no migration.
	err := s.client.Rename(ctx, s.key(s.id), s.key(newID)).Err()
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s.id = newID
	return nil
}

func isNoSuchKey(err error) bool {
	return err != nil && err.Error() == "ERR no such key"
}
