package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the client cache in Redis under a key prefix
type RedisStorage struct {
	client *redis.Client
	prefix string
}

var _ StorageInterface = (*RedisStorage)(nil)

// NewRedisStorage wraps an existing Redis client
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Store sets a key without expiry
func (s *RedisStorage) Store(key string, data []byte) error {
	if err := s.client.Set(context.Background(), s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s in redis: %w", key, err)
	}
	return nil
}

// Retrieve gets a key
func (s *RedisStorage) Retrieve(key string) ([]byte, error) {
	data, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	return data, nil
}

// List scans for keys under prefix
func (s *RedisStorage) List(prefix string) ([]string, error) {
	ctx := context.Background()
	var keys []string

	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list redis keys: %w", err)
	}
	return keys, nil
}

// Delete removes a key
func (s *RedisStorage) Delete(key string) error {
	if err := s.client.Del(context.Background(), s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}
