package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/query"
)

// SnapshotSource is the read side of SnapshotCache.
type SnapshotSource interface {
	Get(ctx context.Context) (CacheResult, error)
	Current() *domain.Snapshot
}

// MarketList is one filtered view over a snapshot plus cache metadata.
type MarketList struct {
	Markets        []domain.Market
	TotalAvailable int
	Cached         bool
	CacheAge       time.Duration
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	domain.MarketStats
	SnapshotID string
	CapturedAt time.Time
	CacheAge   time.Duration
	Summary    domain.FetchSummary
}

// Readiness describes the held snapshot without refreshing it.
type Readiness struct {
	Ready      bool
	SnapshotID string
	Markets    int
	CacheAge   time.Duration
}

// MarketService answers market queries from the snapshot cache.
type MarketService struct {
	cache  SnapshotSource
	now    func() time.Time
	logger *slog.Logger
}

// NewMarketService creates a MarketService reading from cache.
func NewMarketService(cache SnapshotSource, logger *slog.Logger) *MarketService {
	return &MarketService{
		cache:  cache,
		now:    time.Now,
		logger: logger.With(slog.String("component", "market_service")),
	}
}

// ListMarkets returns the markets selected by opts, highest volume first.
func (s *MarketService) ListMarkets(ctx context.Context, opts domain.QueryOpts) (MarketList, error) {
	res, err := s.cache.Get(ctx)
	if err != nil {
		return MarketList{}, fmt.Errorf("market_service: list markets: %w", err)
	}

	markets := query.Apply(res.Snapshot.Markets, opts)
	s.logger.DebugContext(ctx, "market_service: listed markets",
		slog.Int("count", len(markets)),
		slog.Bool("cached", res.Cached),
	)
	return MarketList{
		Markets:        markets,
		TotalAvailable: res.Snapshot.Len(),
		Cached:         res.Cached,
		CacheAge:       res.Snapshot.Age(s.now()),
	}, nil
}

// TopMarkets returns the n highest-volume markets. n must be in
// [1, domain.MaxQueryLimit].
func (s *MarketService) TopMarkets(ctx context.Context, n int) (MarketList, error) {
	if n < 1 || n > domain.MaxQueryLimit {
		return MarketList{}, fmt.Errorf("%w: N must be between 1 and %d", domain.ErrInvalidQuery, domain.MaxQueryLimit)
	}
	return s.ListMarkets(ctx, domain.QueryOpts{Limit: n})
}

// GetMarket returns one market by id or condition id.
func (s *MarketService) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	res, err := s.cache.Get(ctx)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get market: %w", err)
	}
	m, ok := query.Find(res.Snapshot.Markets, id)
	if !ok {
		return domain.Market{}, fmt.Errorf("market_service: market %q: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

// Categories returns per-category market counts for the current snapshot.
func (s *MarketService) Categories(ctx context.Context) ([]domain.CategoryCount, error) {
	res, err := s.cache.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("market_service: categories: %w", err)
	}
	return query.Categories(res.Snapshot.Markets), nil
}

// Stats summarizes the current snapshot.
func (s *MarketService) Stats(ctx context.Context) (Stats, error) {
	res, err := s.cache.Get(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("market_service: stats: %w", err)
	}
	snap := res.Snapshot
	return Stats{
		MarketStats: query.Summarize(snap.Markets),
		SnapshotID:  snap.ID,
		CapturedAt:  snap.CapturedAt,
		CacheAge:    snap.Age(s.now()),
		Summary:     snap.Summary,
	}, nil
}

// Readiness reports whether a snapshot is held. It never triggers a refresh.
func (s *MarketService) Readiness() Readiness {
	snap := s.cache.Current()
	if snap == nil {
		return Readiness{}
	}
	return Readiness{
		Ready:      true,
		SnapshotID: snap.ID,
		Markets:    snap.Len(),
		CacheAge:   snap.Age(s.now()),
	}
}
