package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/user/profile-crawler/internal/repository"
	"go.uber.org/zap"
)

const crawlLockKey = "profiles:crawl:lock"

// releaseScript deletes the lock only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockImpl is a CrawlLock shared by every process using the same Redis.
// The TTL bounds how long a crashed owner can block later crawls.
type LockImpl struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLock creates a new instance of LockImpl.
func NewLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LockImpl {
	return &LockImpl{client: client, ttl: ttl, logger: logger}
}

// TryAcquire sets the lock key if absent (SET NX PX).
func (l *LockImpl) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, crawlLockKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrLockHeld
	}

	release := func() {
		// the crawl context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{crawlLockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Error("failed to release crawl lock", zap.Error(err))
		}
	}
	return release, nil
}

// Held reports whether any process holds the lock.
func (l *LockImpl) Held(ctx context.Context) (bool, error) {
	val, err := l.client.Exists(ctx, crawlLockKey).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
