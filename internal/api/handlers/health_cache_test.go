package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecorisk/internal/prediction"
)

func TestHealthCache_CollapsesConcurrentCalls(t *testing.T) {
	release := make(chan struct{})
	p := &mockPredictor{
		healthFn: func(context.Context) (*prediction.HealthStatus, error) {
			<-release
			return &prediction.HealthStatus{Status: "healthy", ModelsLoaded: true}, nil
		},
	}
	cache := NewHealthCache(p, time.Minute, discardLogger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*prediction.HealthStatus, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := cache.Get(context.Background())
			assert.NoError(t, err)
			results[i] = status
		}()
	}

	require.Eventually(t, func() bool {
		_, health := p.counts()
		return health == 1
	}, time.Second, 5*time.Millisecond)
	// Let the other callers reach the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	_, health := p.counts()
	assert.Equal(t, 1, health)
	for _, status := range results {
		require.NotNil(t, status)
		assert.True(t, status.ModelsLoaded)
	}
}

func TestHealthCache_ExpiresAfterTTL(t *testing.T) {
	p := &mockPredictor{
		healthFn: func(context.Context) (*prediction.HealthStatus, error) {
			return &prediction.HealthStatus{Status: "healthy"}, nil
		},
	}
	cache := NewHealthCache(p, time.Minute, discardLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	_, health := p.counts()
	assert.Equal(t, 1, health, "fresh entry must be served from cache")

	now = now.Add(31 * time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	_, health = p.counts()
	assert.Equal(t, 2, health, "stale entry must be refetched")
}

func TestHealthCache_FailuresAreNotCached(t *testing.T) {
	fail := true
	p := &mockPredictor{
		healthFn: func(context.Context) (*prediction.HealthStatus, error) {
			if fail {
				return nil, errors.New("connection refused")
			}
			return &prediction.HealthStatus{Status: "healthy", ModelsLoaded: true}, nil
		},
	}
	cache := NewHealthCache(p, time.Minute, discardLogger())

	_, err := cache.Get(context.Background())
	require.Error(t, err)

	fail = false
	status, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, status.ModelsLoaded)
}

func TestHealthCache_GetHonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := &mockPredictor{
		healthFn: func(context.Context) (*prediction.HealthStatus, error) {
			<-release
			return &prediction.HealthStatus{}, nil
		},
	}
	cache := NewHealthCache(p, time.Minute, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := cache.Get(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealthCache_PeekStartsBackgroundRefresh(t *testing.T) {
	p := &mockPredictor{
		healthFn: func(context.Context) (*prediction.HealthStatus, error) {
			return &prediction.HealthStatus{Status: "healthy", ModelsLoaded: false}, nil
		},
	}
	cache := NewHealthCache(p, time.Minute, discardLogger())

	status, ok := cache.Peek()
	assert.False(t, ok)
	assert.Nil(t, status)

	require.Eventually(t, func() bool {
		_, ok := cache.Peek()
		return ok
	}, time.Second, 5*time.Millisecond)

	status, ok = cache.Peek()
	require.True(t, ok)
	assert.False(t, status.ModelsLoaded)
}

func TestNewHealthCache_DefaultTTL(t *testing.T) {
	cache := NewHealthCache(&mockPredictor{}, 0, nil)
	assert.Equal(t, defaultHealthTTL, cache.ttl)
}
