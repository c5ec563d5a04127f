package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/profile-crawler/internal/entity"
	"github.com/user/profile-crawler/internal/repository"
	"github.com/user/profile-crawler/pkg/utils"
	"go.uber.org/zap"
)

const visitedURLPrefix = "profiles:known:"

// VisitedRepoImpl fronts a RecordStore with a Redis set of known URLs so the
// dedup check of repeat crawls does not hit the database. Profiles are never
// deleted, so a cached hit never goes stale; a miss always falls through to
// the wrapped store, which stays authoritative. Redis faults are logged and
// ignored.
type VisitedRepoImpl struct {
	repository.RecordStore
	client *redis.Client
	logger *zap.Logger
}

// NewVisitedRepo wraps store with a Redis known-URL cache.
func NewVisitedRepo(store repository.RecordStore, client *redis.Client, logger *zap.Logger) *VisitedRepoImpl {
	return &VisitedRepoImpl{RecordStore: store, client: client, logger: logger}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *VisitedRepoImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", visitedURLPrefix, utils.HashURL(url))
}

// Exists answers from Redis when the URL is known, otherwise asks the store.
func (r *VisitedRepoImpl) Exists(ctx context.Context, url string) (bool, error) {
	val, err := r.client.Exists(ctx, r.generateKey(url)).Result()
	if err != nil {
		r.logger.Warn("known-url cache lookup failed", zap.String("url", url), zap.Error(err))
	} else if val == 1 {
		return true, nil
	}

	exists, err := r.RecordStore.Exists(ctx, url)
	if err != nil {
		return false, err
	}
	if exists {
		r.markKnown(ctx, url)
	}
	return exists, nil
}

// Save writes through to the store and records the URL as known.
func (r *VisitedRepoImpl) Save(ctx context.Context, profile *entity.Profile) (bool, error) {
	inserted, err := r.RecordStore.Save(ctx, profile)
	if err != nil {
		return false, err
	}
	// stored either by this call or an earlier one
	r.markKnown(ctx, profile.URL)
	return inserted, nil
}

// Ping checks both Redis and the wrapped store.
func (r *VisitedRepoImpl) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return r.RecordStore.Ping(ctx)
}

func (r *VisitedRepoImpl) markKnown(ctx context.Context, url string) {
	if err := r.client.Set(ctx, r.generateKey(url), "1", 0).Err(); err != nil {
		r.logger.Warn("known-url cache write failed", zap.String("url", url), zap.Error(err))
	}
}
