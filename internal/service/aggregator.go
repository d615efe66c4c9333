package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/metrics"
	"github.com/alanyoungcy/predibet/internal/platform/polymarket"
)

// RawFetcher pulls the raw upstream listing. polymarket.Paginator implements it.
type RawFetcher interface {
	FetchAll(ctx context.Context) ([]polymarket.RawMarket, polymarket.FetchStats)
}

// Aggregator builds snapshots by paginating the upstream listing and
// normalizing every record. It is the Loader behind SnapshotCache.
type Aggregator struct {
	fetcher RawFetcher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewAggregator creates an Aggregator over fetcher.
func NewAggregator(fetcher RawFetcher, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		metrics: m,
		logger:  logger.With(slog.String("component", "aggregator")),
		now:     time.Now,
	}
}

// Load runs one fetch and normalize cycle. It never fails: upstream problems
// shrink the snapshot and are recorded in its Summary.
func (a *Aggregator) Load(ctx context.Context) (*domain.Snapshot, error) {
	start := a.now()

	raws, stats := a.fetcher.FetchAll(ctx)
	markets, skipped := polymarket.NormalizeAll(raws, a.logger)
	a.metrics.AddSkipped(skipped)

	summary := domain.FetchSummary{
		Pages:      stats.Pages,
		Records:    stats.Records,
		Skipped:    skipped,
		StopReason: string(stats.StopReason),
	}
	if stats.Err != nil {
		summary.Error = stats.Err.Error()
	}

	snap := &domain.Snapshot{
		ID:         uuid.NewString(),
		Markets:    markets,
		CapturedAt: a.now(),
		Summary:    summary,
	}

	elapsed := snap.CapturedAt.Sub(start)
	a.metrics.ObserveRefresh(summary.StopReason, len(markets), elapsed, snap.CapturedAt)
	a.logger.InfoContext(ctx, "aggregator: snapshot built",
		slog.String("snapshot_id", snap.ID),
		slog.Int("markets", len(markets)),
		slog.Int("skipped", skipped),
		slog.Int("pages", stats.Pages),
		slog.String("stop_reason", summary.StopReason),
		slog.Duration("elapsed", elapsed),
	)
	return snap, nil
}
