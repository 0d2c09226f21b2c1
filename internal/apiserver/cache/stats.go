package cache

import (
	"context"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/pkg/metrics"
	"go.uber.org/zap"
)

const statsKey = "dashboard:stats"

// StatsCache serves dashboard counts from the cache and reloads them from
// the database on a miss.
type StatsCache struct {
	cache   Cache
	db      database.Database
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsCache creates a StatsCache. m may be nil.
func NewStatsCache(c Cache, db database.Database, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *StatsCache {
	return &StatsCache{
		cache:   c,
		db:      db,
		ttl:     ttl,
		metrics: m,
		logger:  logger.Named("cache.stats"),
		now:     time.Now,
	}
}

// Get returns the dashboard counts. Cache failures fall back to the database.
func (s *StatsCache) Get(ctx context.Context) (*database.Stats, error) {
	var stats database.Stats
	found, err := s.cache.Get(ctx, statsKey, &stats)
	if err != nil {
		s.logger.Warn("failed to read stats from cache", zap.Error(err))
	}
	s.metrics.CacheLookup("stats", found)
	if found {
		return &stats, nil
	}

	fresh, err := s.db.Stats(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, statsKey, fresh, s.ttl); err != nil {
		s.logger.Warn("failed to cache stats", zap.Error(err))
	}
	return fresh, nil
}

// Invalidate drops the cached counts after a write
func (s *StatsCache) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}
