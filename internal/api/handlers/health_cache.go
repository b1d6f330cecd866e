package handlers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ecorisk/internal/prediction"
)

const (
	defaultHealthTTL   = 30 * time.Second
	healthFetchTimeout = 5 * time.Second
	healthFlightKey    = "health"
)

// HealthFetcher fetches the prediction service health.
type HealthFetcher interface {
	Health(ctx context.Context) (*prediction.HealthStatus, error)
}

// HealthCache collapses concurrent health lookups into one upstream call and
// keeps the last successful answer for a TTL. Failures are not cached.
type HealthCache struct {
	fetcher HealthFetcher
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	status    *prediction.HealthStatus
	fetchedAt time.Time
}

// NewHealthCache returns a cache over fetcher. A non-positive ttl uses 30s.
func NewHealthCache(fetcher HealthFetcher, ttl time.Duration, logger *slog.Logger) *HealthCache {
	if ttl <= 0 {
		ttl = defaultHealthTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthCache{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the cached status while it is fresh and otherwise joins, or
// starts, the shared upstream call. The shared call is detached from ctx so
// that one caller going away does not fail the others; ctx only bounds how
// long this caller waits.
func (c *HealthCache) Get(ctx context.Context) (*prediction.HealthStatus, error) {
	if status, fresh := c.cached(); fresh {
		return status, nil
	}

	ch := c.group.DoChan(healthFlightKey, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*prediction.HealthStatus), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peek returns the last known status without blocking. When the entry is
// missing or stale it starts a refresh in the background.
func (c *HealthCache) Peek() (*prediction.HealthStatus, bool) {
	status, fresh := c.cached()
	if !fresh {
		c.group.DoChan(healthFlightKey, func() (any, error) {
			return c.fetch(context.Background())
		})
	}
	return status, status != nil
}

func (c *HealthCache) cached() (*prediction.HealthStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status == nil {
		return nil, false
	}
	return c.status, c.now().Sub(c.fetchedAt) < c.ttl
}

func (c *HealthCache) fetch(ctx context.Context) (*prediction.HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, healthFetchTimeout)
	defer cancel()

	status, err := c.fetcher.Health(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "prediction service health check failed", "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.status = status
	c.fetchedAt = c.now()
	c.mu.Unlock()

	if !status.ModelsLoaded {
		c.logger.WarnContext(ctx, "prediction service reports no loaded models",
			"status", status.Status,
			"models_loaded", status.ModelsLoaded,
		)
	}
	return status, nil
}
