package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajaravivarma-r/darkwire.io/internal/domain"
)

// RedisStore keeps each room as a JSON blob under rooms:<id>. An optional TTL
// reaps rooms abandoned without a clean disconnect. The TTL is refreshed only
// on writes (joins, lock toggles, leaves), not on reads, so it must comfortably
// exceed the longest idle session you want to keep alive: a quiet-but-occupied
// room that outlives the TTL expires and its next disconnect finds no record.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration // 0 = no expiry
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func roomKey(id string) string {
	return fmt.Sprintf("rooms:%s", id)
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	val, err := s.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", roomID, err)
	}
	return decodeRecord(val)
}

func (s *RedisStore) Set(ctx context.Context, room *domain.Room) error {
	b, err := encodeRecord(room)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, roomKey(room.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", room.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", roomID, err)
	}
	return nil
}
