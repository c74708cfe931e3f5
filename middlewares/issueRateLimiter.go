package middlewares

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Counter increments a windowed counter and reports the new count and the
// time left in the window. Undo takes back one earlier Hit.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Undo(ctx context.Context, key string) error
}

// RedisCounter keeps one expiring INCR key per user.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	// Set TTL only for the first increment (when count = 1)
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}
	return count, ttl, nil
}

func (r *RedisCounter) Undo(ctx context.Context, key string) error {
	count, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	// The key expired between Hit and Undo; DECR recreated it without a TTL.
	if count < 0 {
		return r.client.Del(ctx, key).Err()
	}
	return nil
}

// MemoryCounter is a single-process Counter for development without Redis.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]memoryBucket
}

type memoryBucket struct {
	count   int64
	expires time.Time
}

func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{now: now, buckets: make(map[string]memoryBucket)}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok || !now.Before(b.expires) {
		b = memoryBucket{expires: now.Add(window)}
	}
	b.count++
	m.buckets[key] = b
	return b.count, b.expires.Sub(now), nil
}

func (m *MemoryCounter) Undo(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || !m.now().Before(b.expires) || b.count == 0 {
		return nil
	}
	b.count--
	m.buckets[key] = b
	return nil
}

// IssueRateLimiter caps how many issues one user may report per day. It must
// run after Authenticate and RequirePage. Only requests that end in 201 Created
// keep their slot; rejected or failed submissions are refunded.
func IssueRateLimiter(counter Counter, prefix string, limit int, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if !principal.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "home": "/"})
			return
		}
		if limit <= 0 {
			c.Next()
			return
		}

		// Create individual key for each user
		userKey := prefix + ":" + principal.UserID.Hex()

		count, retryAfter, err := counter.Hit(c.Request.Context(), userKey, 24*time.Hour)
		if err != nil {
			logger.WithError(err).WithField("key", userKey).Error("rate limit counter failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}

		if count > int64(limit) {
			refund(c, counter, userKey, logger)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()

		if c.Writer.Status() != http.StatusCreated {
			refund(c, counter, userKey, logger)
		}
	}
}

func refund(c *gin.Context, counter Counter, key string, logger logrus.FieldLogger) {
	if err := counter.Undo(context.WithoutCancel(c.Request.Context()), key); err != nil {
		logger.WithError(err).WithField("key", key).Warn("rate limit refund failed")
	}
}
