package redis

// Package redis provides Redis-based adapters for the storefront gateway.

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
	"github.com/redis/go-redis/v9"
)

// CredentialStore is a Redis-based KeyValueStore for production use.
// Each namespace is one hash, so a namespace's keys are written and removed
// atomically and never expire on their own.
type CredentialStore struct {
	client redis.UniversalClient
	prefix string
}

// NewCredentialStore creates a Redis credential store with the default key prefix.
func NewCredentialStore(client redis.UniversalClient) *CredentialStore {
	return &CredentialStore{
		client: client,
		prefix: "credentials:",
	}
}

// NewCredentialStoreWithPrefix creates a Redis credential store with a custom key prefix.
func NewCredentialStoreWithPrefix(client redis.UniversalClient, prefix string) *CredentialStore {
	return &CredentialStore{
		client: client,
		prefix: prefix,
	}
}

func (s *CredentialStore) key(namespace string) string {
	return s.prefix + namespace
}

func (s *CredentialStore) Get(ctx context.Context, namespace, key string) (string, error) {
	if namespace == "" {
		return "", ports.ErrNotFound
	}

	v, err := s.client.HGet(ctx, s.key(namespace), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return v, nil
}

func (s *CredentialStore) GetMany(ctx context.Context, namespace string, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if namespace == "" || len(keys) == 0 {
		return out, nil
	}

	vals, err := s.client.HMGet(ctx, s.key(namespace), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

func (s *CredentialStore) SetMany(ctx context.Context, namespace string, values map[string]string) error {
	if namespace == "" {
		return errors.New("namespace cannot be empty")
	}
	if len(values) == 0 {
		return nil
	}

	fields := make([]any, 0, len(values)*2)
	for k, v := range values {
		fields = append(fields, k, v)
	}
	if err := s.client.HSet(ctx, s.key(namespace), fields...).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, namespace string, keys ...string) error {
	if namespace == "" || len(keys) == 0 {
		return nil // Nothing to delete
	}

	if err := s.client.HDel(ctx, s.key(namespace), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}
