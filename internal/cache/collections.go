package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zfogg/snapshelf/backend/internal/logger"
	"github.com/zfogg/snapshelf/backend/internal/metrics"
	"github.com/zfogg/snapshelf/backend/internal/models"
	"go.uber.org/zap"
)

const (
	collectionsCacheName = "collections"
	defaultCollectionTTL = 10 * time.Minute
)

// CollectionCache keeps each user's collection list. Every mutation of a
// collection must invalidate the list of every member.
type CollectionCache struct {
	store Store
	ttl   time.Duration
}

// NewCollectionCache creates a cache over store. A zero ttl uses the default.
func NewCollectionCache(store Store, ttl time.Duration) *CollectionCache {
	if ttl <= 0 {
		ttl = defaultCollectionTTL
	}
	return &CollectionCache{store: store, ttl: ttl}
}

func collectionsKey(userID string) string {
	return "collections:user:" + userID
}

// Get returns the cached list for userID and whether it was present.
func (c *CollectionCache) Get(ctx context.Context, userID string) ([]*models.ArchiveGroup, bool) {
	raw, err := c.store.Get(ctx, collectionsKey(userID))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.WarnWithFields("Collection cache read failed", err, logger.WithUserID(userID))
		}
		metrics.RecordCacheMiss(collectionsCacheName)
		return nil, false
	}

	var groups []*models.ArchiveGroup
	if err := json.Unmarshal([]byte(raw), &groups); err != nil {
		logger.WarnWithFields("Discarding undecodable collection cache entry", err, logger.WithUserID(userID))
		_ = c.store.Del(ctx, collectionsKey(userID))
		metrics.RecordCacheMiss(collectionsCacheName)
		return nil, false
	}

	metrics.RecordCacheHit(collectionsCacheName)
	return groups, true
}

// Set stores userID's list.
func (c *CollectionCache) Set(ctx context.Context, userID string, groups []*models.ArchiveGroup) {
	data, err := json.Marshal(groups)
	if err != nil {
		logger.WarnWithFields("Failed to encode collections for cache", err, logger.WithUserID(userID))
		return
	}
	if err := c.store.SetEx(ctx, collectionsKey(userID), string(data), c.ttl); err != nil {
		logger.WarnWithFields("Collection cache write failed", err, logger.WithUserID(userID))
	}
}

// Invalidate drops the cached lists of userIDs.
func (c *CollectionCache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, collectionsKey(id))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		logger.Log.Warn("Collection cache invalidation failed",
			zap.Strings("user_ids", userIDs),
			zap.Error(err),
		)
	}
}
