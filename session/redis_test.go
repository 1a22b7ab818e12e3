package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisStore(rdb, "", "", time.Hour)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	if s.ID() == "" {
		t.Fatalf("ID is empty")
	}

	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty failed: %v", err)
	}
	if d.LoggedIn {
		t.Fatalf("empty session reports LoggedIn")
	}

	want := Data{
		LoggedIn:   true,
		UserID:     42,
		Email:      "alice@example.com",
		Username:   "alice",
		Roles:      3,
		LastResync: 1_700_000_000,
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestRedisStoreRegenerateIDKeepsData(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	want := Data{LoggedIn: true, UserID: 7}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	oldID := s.ID()
	if err := s.RegenerateID(ctx); err != nil {
		t.Fatalf("RegenerateID failed: %v", err)
	}
	if s.ID() == oldID {
		t.Fatalf("RegenerateID kept the old id")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Fatalf("Load after regenerate = %+v, want %+v", got, want)
	}

	// the record is no longer reachable under the old id
	stale := NewRedisStore(redisClientOf(t, s), "", oldID, time.Hour)
	got, err = stale.Load(ctx)
	if err != nil {
		t.Fatalf("Load stale failed: %v", err)
	}
	if got.LoggedIn {
		t.Fatalf("old session id still resolves")
	}
}

func TestRedisStoreRegenerateIDOnEmptySession(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.RegenerateID(ctx); err != nil {
		t.Fatalf("RegenerateID on empty session failed: %v", err)
	}
}

func TestRedisStoreClear(t *testing.T) {
	_, s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, Data{LoggedIn: true, UserID: 9}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.LoggedIn {
		t.Fatalf("session survived Clear")
	}
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	mr, s := newTestRedisStore(t)
	ctx := context.Background()

	mr.Set("sqlauth:sess:"+s.ID(), "{not json")
	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load corrupt failed: %v", err)
	}
	if d.LoggedIn {
		t.Fatalf("corrupt record reported as logged in")
	}
}

func redisClientOf(t *testing.T, s *RedisStore) redis.UniversalClient {
	t.Helper()
	return s.client
}

func TestMemoryStoreRegenerateIDKeepsData(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	want := Data{LoggedIn: true, UserID: 5}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	oldID := s.ID()
	if err := s.RegenerateID(ctx); err != nil {
		t.Fatalf("RegenerateID failed: %v", err)
	}
	if s.ID() == oldID {
		t.Fatalf("RegenerateID kept the old id")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Fatalf("Load after regenerate = %+v, want %+v", got, want)
	}
}
