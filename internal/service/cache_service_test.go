package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lms-access-api/pkg/errors"
)

type flakyCacheRepo struct {
	getErr   error
	patterns []string
}

func (r *flakyCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return r.getErr
}

func (r *flakyCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *flakyCacheRepo) Delete(ctx context.Context, key string) error { return nil }

func (r *flakyCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

type cacheCounter struct {
	hits, misses, writes int
}

func (c *cacheCounter) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func (c *cacheCounter) ObserveCacheWrite(duration time.Duration) { c.writes++ }

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", &struct{}{})
	assert.False(t, hit)
	assert.NoError(t, err)

	repo := &flakyCacheRepo{}
	svc := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Invalidate(context.Background(), "enrollment:*"))
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceRecordsOutcomes(t *testing.T) {
	repo := &flakyCacheRepo{getErr: appErrors.ErrCacheMiss}
	counter := &cacheCounter{}
	svc := NewCacheService(repo, counter, time.Minute, nil, true)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", &struct{}{})
	assert.False(t, hit)
	assert.NoError(t, err)

	repo.getErr = errors.New("connection reset")
	hit, err = svc.Get(ctx, "k", &struct{}{})
	assert.False(t, hit)
	assert.Error(t, err)

	repo.getErr = nil
	hit, err = svc.Get(ctx, "k", &struct{}{})
	assert.True(t, hit)
	assert.NoError(t, err)

	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.Equal(t, cacheCounter{hits: 1, misses: 2, writes: 1}, *counter)

	require.NoError(t, svc.Invalidate(ctx, "enrollment:*"))
	assert.Equal(t, []string{"enrollment:*"}, repo.patterns)
}
