package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RevocationStore 记录已注销的 token jti，直到 token 自然过期
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewRevocationStore client 为 nil 时使用进程内存储
func NewRevocationStore(client *redis.Client) RevocationStore {
	if client == nil {
		return NewMemoryRevocationStore()
	}
	return &RedisRevocationStore{client: client}
}

type RedisRevocationStore struct {
	client *redis.Client
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	// 顺便清理已过期条目
	for k, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, k)
		}
	}
	if until.After(now) {
		s.entries[jti] = until
	}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}
