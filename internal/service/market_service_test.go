package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predibet/internal/domain"
)

type staticSource struct {
	snap   *domain.Snapshot
	cached bool
	err    error
}

func (s *staticSource) Get(context.Context) (CacheResult, error) {
	if s.err != nil {
		return CacheResult{}, s.err
	}
	return CacheResult{Snapshot: s.snap, Cached: s.cached}, nil
}

func (s *staticSource) Current() *domain.Snapshot { return s.snap }

func sp(s string) *string { return &s }

func newTestService(src SnapshotSource, now time.Time) *MarketService {
	svc := NewMarketService(src, testLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func sampleSnapshot(at time.Time) *domain.Snapshot {
	p := 0.4
	return &domain.Snapshot{
		ID:         "snap-x",
		CapturedAt: at,
		Markets: []domain.Market{
			{ID: sp("a"), Volume: 50, Category: sp("Sports")},
			{ID: sp("b"), Volume: 200, Category: sp("Sports"), Probability: &p},
			{ID: sp("c"), Volume: 10, Category: sp("Politics"), ConditionID: sp("0xc")},
		},
	}
}

func TestMarketService_ListMarkets(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&staticSource{snap: sampleSnapshot(at), cached: true}, at.Add(42*time.Second))

	list, err := svc.ListMarkets(context.Background(), domain.QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list.Markets, 2)
	assert.Equal(t, "b", list.Markets[0].MarketID())
	assert.Equal(t, "a", list.Markets[1].MarketID())
	assert.Equal(t, 3, list.TotalAvailable)
	assert.True(t, list.Cached)
	assert.Equal(t, 42*time.Second, list.CacheAge)
}

func TestMarketService_TopMarketsBounds(t *testing.T) {
	at := time.Now()
	svc := newTestService(&staticSource{snap: sampleSnapshot(at)}, at)

	for _, n := range []int{0, -1, 1001} {
		_, err := svc.TopMarkets(context.Background(), n)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidQuery))
		assert.Contains(t, err.Error(), "N must be between 1 and 1000")
	}

	list, err := svc.TopMarkets(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list.Markets, 1)
	assert.Equal(t, "b", list.Markets[0].MarketID())
}

func TestMarketService_GetMarket(t *testing.T) {
	at := time.Now()
	svc := newTestService(&staticSource{snap: sampleSnapshot(at)}, at)

	m, err := svc.GetMarket(context.Background(), "0xc")
	require.NoError(t, err)
	assert.Equal(t, "c", m.MarketID())

	_, err = svc.GetMarket(context.Background(), "zzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMarketService_CategoriesAndStats(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService(&staticSource{snap: sampleSnapshot(at)}, at.Add(time.Minute))

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryCount{{Name: "Sports", Count: 2}, {Name: "Politics", Count: 1}}, cats)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMarkets)
	assert.Equal(t, 260.0, stats.TotalVolume)
	assert.InDelta(t, 0.4, stats.AvgProbability, 1e-9)
	assert.Equal(t, 2, stats.Categories)
	assert.Equal(t, "snap-x", stats.SnapshotID)
	assert.Equal(t, time.Minute, stats.CacheAge)
}

func TestMarketService_PropagatesCacheErrors(t *testing.T) {
	svc := newTestService(&staticSource{err: errors.New("loader down")}, time.Now())

	_, err := svc.ListMarkets(context.Background(), domain.QueryOpts{})
	assert.Error(t, err)
	_, err = svc.Categories(context.Background())
	assert.Error(t, err)
	_, err = svc.Stats(context.Background())
	assert.Error(t, err)
}

func TestMarketService_Readiness(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	empty := newTestService(&staticSource{}, at)
	assert.False(t, empty.Readiness().Ready)

	svc := newTestService(&staticSource{snap: sampleSnapshot(at)}, at.Add(5*time.Second))
	r := svc.Readiness()
	assert.True(t, r.Ready)
	assert.Equal(t, 3, r.Markets)
	assert.Equal(t, "snap-x", r.SnapshotID)
	assert.Equal(t, 5*time.Second, r.CacheAge)
}
