package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/remote"
	"github.com/vso023/smartpark-project/internal/route"
	"github.com/vso023/smartpark-project/internal/score"
)

var caliDowntown = geo.Location{Lat: 3.4516, Lng: -76.5320}

// repoFunc adapts a function to parking.Repository.
type repoFunc func(ctx context.Context, origin geo.Location, filters parking.Filters) ([]parking.Facility, error)

func (f repoFunc) QueryCandidates(ctx context.Context, origin geo.Location, filters parking.Filters) ([]parking.Facility, error) {
	return f(ctx, origin, filters)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newLocalService(catalog *parking.Catalog) *Service {
	return NewService(Options{
		Catalog: catalog,
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})
}

func closedCatalog() *parking.Catalog {
	return parking.NewCatalog([]parking.Facility{
		{ID: 1, Name: "closed", Location: caliDowntown, Available: false, Capacity: 10},
		{ID: 2, Name: "full", Location: caliDowntown, Available: true, Capacity: 10, AvailableSpaces: 0},
	})
}

func TestSearch_InvalidLocationFailsFast(t *testing.T) {
	calls := 0
	svc := NewService(Options{
		Remote: repoFunc(func(context.Context, geo.Location, parking.Filters) ([]parking.Facility, error) {
			calls++
			return nil, nil
		}),
		Logger: quietLogger(),
	})

	_, err := svc.Search(context.Background(), geo.Location{Lat: 91, Lng: 0}, parking.Filters{})
	failure, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailInvalidLocation, failure.Kind)
	assert.Zero(t, calls, "no repository may be queried for an invalid origin")
}

func TestSearch_SucceedsFromLocalCatalog(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	res, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	require.NotNil(t, res.Primary)
	assert.True(t, res.Primary.Available)
	assert.Positive(t, res.Primary.AvailableSpaces)
	assert.LessOrEqual(t, len(res.Alternatives), 3)

	require.Len(t, res.Route, route.Waypoints)
	assert.Equal(t, caliDowntown, res.Route[0])
	assert.Equal(t, res.Primary.Location, res.Route[len(res.Route)-1])
	assert.Equal(t, StateSucceeded, svc.State())
}

func TestSearch_AlternativesAreNearestFirst(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	res, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	prev := res.Primary.CompositeScore
	for _, alt := range res.Alternatives {
		assert.GreaterOrEqual(t, alt.CompositeScore, prev)
		prev = alt.CompositeScore
	}
}

func TestSearch_CacheIdempotence(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	first, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)

	// A hit inside the TTL serves the same cached entry: same assembly time,
	// same jittered route, same winner. The snapshots themselves are distinct
	// objects so callers never share mutable state.
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, first.Route, second.Route)
	assert.Equal(t, first.Primary.ID, second.Primary.ID)
	assert.NotSame(t, first.Primary, second.Primary)
}

func TestSearch_CacheExpiry(t *testing.T) {
	svc := NewService(Options{
		Catalog:  parking.DefaultCatalog(),
		Routes:   route.NewSynthesizer(1),
		CacheTTL: 30 * time.Millisecond,
		Logger:   quietLogger(),
	})

	first, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	second, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	assert.True(t, second.Timestamp.After(first.Timestamp), "an expired entry must trigger a fresh search")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "3.4516_-76.5320", cacheKey(caliDowntown, parking.Filters{}),
		"an unfiltered query carries no filter suffix")
	assert.Equal(t, cacheKey(caliDowntown, parking.Filters{}),
		cacheKey(geo.Location{Lat: 3.45162, Lng: -76.53198}, parking.Filters{}),
		"coordinates within ~11 m share an entry")
	assert.NotEqual(t, cacheKey(caliDowntown, parking.Filters{}),
		cacheKey(caliDowntown, parking.Filters{MaxPrice: 3000}),
		"filters distinguish otherwise identical queries")
	assert.NotEqual(t, cacheKey(caliDowntown, parking.Filters{MaxPrice: 3000}),
		cacheKey(caliDowntown, parking.Filters{MaxDistanceKm: 3}))
}

func TestSearch_ExplicitInvalidation(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	_, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)

	key := cacheKey(caliDowntown, parking.Filters{})
	_, ok := svc.cache.get(key)
	require.True(t, ok)

	svc.Invalidate(caliDowntown, parking.Filters{})

	_, ok = svc.cache.get(key)
	assert.False(t, ok, "invalidation must drop the entry before its TTL")
}

func TestSearch_FallsBackWhenRemoteUnavailable(t *testing.T) {
	svc := NewService(Options{
		Remote: repoFunc(func(context.Context, geo.Location, parking.Filters) ([]parking.Facility, error) {
			return nil, fmt.Errorf("%w: connection refused", remote.ErrUnavailable)
		}),
		Catalog: parking.DefaultCatalog(),
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})

	res, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err, "a broken remote must be recovered via the local catalog")
	assert.NotNil(t, res.Primary)
}

func TestSearch_EmptyRemoteAlsoFallsBack(t *testing.T) {
	svc := NewService(Options{
		Remote: repoFunc(func(context.Context, geo.Location, parking.Filters) ([]parking.Facility, error) {
			// Remote answers, but nothing is eligible after scoring.
			return []parking.Facility{{ID: 99, Available: false, Capacity: 10}}, nil
		}),
		Catalog: parking.DefaultCatalog(),
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})

	res, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	assert.NotEqual(t, int64(99), res.Primary.ID)
}

func TestSearch_ExhaustionFailsWithNoAvailability(t *testing.T) {
	svc := NewService(Options{
		Remote: repoFunc(func(context.Context, geo.Location, parking.Filters) ([]parking.Facility, error) {
			return nil, fmt.Errorf("%w: status 502", remote.ErrUnavailable)
		}),
		Catalog: closedCatalog(),
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})

	_, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	failure, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailNoAvailability, failure.Kind)
	assert.ErrorIs(t, err, remote.ErrUnavailable, "the underlying cause stays attached for diagnostics")
	assert.Equal(t, StateFailed, svc.State())
}

func TestSearch_RateLimitSurfacedOnlyWhenFallbackFails(t *testing.T) {
	rateLimited := repoFunc(func(context.Context, geo.Location, parking.Filters) ([]parking.Facility, error) {
		return nil, &remote.RateLimitedError{Message: "too many requests, slow down"}
	})

	// Healthy fallback: the rate limit is recovered silently.
	svc := NewService(Options{
		Remote:  rateLimited,
		Catalog: parking.DefaultCatalog(),
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})
	_, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	assert.NoError(t, err)

	// Exhausted fallback: the server's message reaches the caller.
	svc = NewService(Options{
		Remote:  rateLimited,
		Catalog: closedCatalog(),
		Routes:  route.NewSynthesizer(1),
		Logger:  quietLogger(),
	})
	_, err = svc.Search(context.Background(), caliDowntown, parking.Filters{})
	failure, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailRateLimited, failure.Kind)
	assert.Equal(t, "too many requests, slow down", failure.Message)
}

func TestApplyAvailability_PatchesLiveResultWithoutReranking(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	first, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)

	primaryID := first.Primary.ID
	distance := first.Primary.DistanceKm
	altIDs := make([]int64, len(first.Alternatives))
	for i, alt := range first.Alternatives {
		altIDs[i] = alt.ID
	}

	svc.ApplyAvailability(bus.Event{FacilityID: primaryID, Available: false})

	// The caller's snapshot is stable; the patch lands on the cached entry
	// and shows up on the next read.
	assert.True(t, first.Primary.Available)

	second, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	assert.Equal(t, primaryID, second.Primary.ID, "ranking order never changes on a patch")
	assert.False(t, second.Primary.Available, "a repeat read must reflect the new flag")
	assert.Equal(t, distance, second.Primary.DistanceKm, "distances never change on a patch")
	for i, alt := range second.Alternatives {
		assert.Equal(t, altIDs[i], alt.ID, "ranking order never changes on a patch")
	}

	stored, ok := svc.catalog.Get(primaryID)
	require.True(t, ok)
	assert.False(t, stored.Available)
}

func TestApplyAvailability_ConcurrentWithReaders(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	res, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)
	primaryID := res.Primary.ID

	// Availability events race against callers marshaling their results and
	// against repeat cache reads. Snapshots keep the readers lock-free.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			svc.ApplyAvailability(bus.Event{FacilityID: primaryID, Available: i%2 == 0})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if _, err := json.Marshal(res); err != nil {
				t.Errorf("marshal returned result: %v", err)
				return
			}
			repeat, err := svc.Search(context.Background(), caliDowntown, parking.Filters{})
			if err != nil {
				t.Errorf("repeat search: %v", err)
				return
			}
			if _, err := json.Marshal(repeat); err != nil {
				t.Errorf("marshal repeat result: %v", err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestApplyAvailability_UnknownFacilityIsIgnored(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())
	assert.NotPanics(t, func() {
		svc.ApplyAvailability(bus.Event{FacilityID: 404, Available: true})
	})
}

func TestCommit_SupersededCycleSkipsSharedState(t *testing.T) {
	svc := newLocalService(parking.DefaultCatalog())

	facilities, err := svc.catalog.QueryCandidates(context.Background(), caliDowntown, parking.Filters{})
	require.NoError(t, err)

	older := svc.begin()
	newer := svc.begin()
	require.NotEqual(t, older, newer)

	ranked, err := score.Rank(caliDowntown, facilities, parking.Filters{})
	require.NoError(t, err)
	key := cacheKey(caliDowntown, parking.Filters{})
	res := svc.commit(older, key, caliDowntown, ranked)
	require.NotNil(t, res, "the superseded caller still gets its result")

	_, ok := svc.cache.get(key)
	assert.False(t, ok, "a superseded cycle must not populate the cache")

	latest := svc.commit(newer, key, caliDowntown, ranked)
	cached, ok := svc.cache.get(key)
	require.True(t, ok)
	assert.Same(t, latest, cached)
}
