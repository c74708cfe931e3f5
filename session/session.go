// Package session keeps server-side records of live logins so that logout
// revokes a token before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

// Store records which user owns a session id.
type Store interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	// Lookup returns the owning user id or ErrNoSession.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// Redis stores sessions as expiring keys.
type Redis struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = "session"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + ":" + sessionID
}

func (r *Redis) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(sessionID), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *Redis) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return userID, nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Memory is an in-process Store for tests and single-instance development.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	userID  string
	expires time.Time
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now, sessions: make(map[string]memoryEntry)}
}

func (m *Memory) Create(_ context.Context, sessionID, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = memoryEntry{userID: userID, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Lookup(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[sessionID]
	if !ok {
		return "", ErrNoSession
	}
	if !m.now().Before(entry.expires) {
		delete(m.sessions, sessionID)
		return "", ErrNoSession
	}
	return entry.userID, nil
}

func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}
