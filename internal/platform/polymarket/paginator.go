package polymarket

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/metrics"
)

const (
	// DefaultPageSize is the number of records requested per page.
	DefaultPageSize = 100
	// DefaultMaxTotal caps the records accumulated across one run.
	DefaultMaxTotal = 1000
)

// PageFetcher returns one page of raw records. GammaClient implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]RawMarket, error)
}

// PaginatorConfig holds pagination bounds. Zero values take the defaults.
type PaginatorConfig struct {
	PageSize int
	MaxTotal int
}

// Paginator walks the upstream listing page by page until an end-of-data
// signal, the record cap, or the first failure.
type Paginator struct {
	fetcher  PageFetcher
	pageSize int
	maxTotal int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPaginator creates a Paginator over fetcher.
func NewPaginator(fetcher PageFetcher, cfg PaginatorConfig, logger *slog.Logger, m *metrics.Metrics) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxTotal <= 0 {
		cfg.MaxTotal = DefaultMaxTotal
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{
		fetcher:  fetcher,
		pageSize: cfg.PageSize,
		maxTotal: cfg.MaxTotal,
		logger:   logger,
		metrics:  m,
	}
}

// FetchAll accumulates raw records in upstream order. It never returns an
// error: a failing page ends the run and whatever was accumulated so far is
// returned, with the cause recorded in FetchStats. Pages are not retried.
func (p *Paginator) FetchAll(ctx context.Context) ([]RawMarket, FetchStats) {
	var (
		all    []RawMarket
		stats  FetchStats
		offset int
	)

	p.logger.InfoContext(ctx, "polymarket/paginator: starting fetch",
		slog.Int("page_size", p.pageSize),
		slog.Int("max_total", p.maxTotal),
	)

	for {
		if len(all) >= p.maxTotal {
			stats.StopReason = StopMaxTotal
			break
		}

		page, err := p.fetcher.FetchPage(ctx, offset, p.pageSize)
		if err != nil {
			stats.Err = err
			stats.StopReason = StopUpstreamError
			if errors.Is(err, domain.ErrUnexpectedEnvelope) {
				stats.StopReason = StopUnexpectedEnvelope
			}
			p.logger.ErrorContext(ctx, "polymarket/paginator: page failed",
				slog.Int("offset", offset),
				slog.Int("accumulated", len(all)),
				slog.String("error", err.Error()),
			)
			break
		}

		if len(page) == 0 {
			stats.StopReason = StopEmptyPage
			break
		}

		stats.Pages++
		p.metrics.IncPages()
		all = append(all, page...)
		p.logger.DebugContext(ctx, "polymarket/paginator: page fetched",
			slog.Int("offset", offset),
			slog.Int("records", len(page)),
			slog.Int("total", len(all)),
		)

		if len(page) < p.pageSize {
			stats.StopReason = StopShortPage
			break
		}
		offset += p.pageSize
	}

	if len(all) > p.maxTotal {
		all = all[:p.maxTotal]
		stats.StopReason = StopMaxTotal
	}
	stats.Records = len(all)

	p.logger.InfoContext(ctx, "polymarket/paginator: fetch finished",
		slog.Int("pages", stats.Pages),
		slog.Int("records", stats.Records),
		slog.String("stop_reason", string(stats.StopReason)),
	)
	return all, stats
}
