package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/predibet/internal/config"
	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/query"
	"github.com/alanyoungcy/predibet/internal/server"
	"github.com/alanyoungcy/predibet/internal/server/handler"
	"github.com/alanyoungcy/predibet/internal/server/middleware"
)

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 10 * time.Second

// ServerMode serves the HTTP API until ctx is cancelled. With warm_on_start
// the first snapshot is built in the background so early requests see a warm
// cache more often.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Duration("cache_ttl", deps.Cache.TTL()),
	)

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Cache.WarmOnStart {
		g.Go(func() error {
			if _, err := deps.Cache.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WarnContext(ctx, "server mode: warm-up refresh failed",
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}

	srv := a.newHTTPServer(deps)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", srv.Addr()),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// writeSlack covers normalization and encoding after the last upstream page.
const writeSlack = 30 * time.Second

// writeTimeout is the worst-case cold refresh (every page taking the full
// upstream timeout) plus writeSlack, and never below server.DefaultWriteTimeout.
func writeTimeout(pm config.PolymarketConfig) time.Duration {
	if pm.PageSize < 1 || pm.MaxTotal < 1 {
		return server.DefaultWriteTimeout
	}
	pages := (pm.MaxTotal + pm.PageSize - 1) / pm.PageSize
	d := time.Duration(pages)*pm.Timeout.Duration + writeSlack
	return max(d, server.DefaultWriteTimeout)
}

// newHTTPServer builds the API server over deps.
func (a *App) newHTTPServer(deps *Dependencies) *server.Server {
	cfg := server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		StaticDir:   a.cfg.Server.StaticDir,
		// A cold-cache request waits for a full upstream aggregation.
		WriteTimeout: writeTimeout(a.cfg.Polymarket),
	}
	if a.cfg.Server.RateLimit.Enabled && deps.RateLimiter != nil {
		cfg.RateLimit = server.RateLimitConfig{
			Limiter:  deps.RateLimiter,
			Requests: a.cfg.Server.RateLimit.Requests,
			Window:   a.cfg.Server.RateLimit.Window.Duration,
		}
	}

	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(deps.Markets, a.logger),
		Markets:    handler.NewMarketHandler(deps.Markets, a.logger),
		Categories: handler.NewCategoryHandler(deps.Markets, a.logger),
		Stats:      handler.NewStatsHandler(deps.Markets, a.logger),
	}

	var obs middleware.HTTPObserver
	if deps.Metrics != nil {
		handlers.Metrics = deps.Metrics.Handler()
		obs = deps.Metrics
	}

	return server.NewServer(cfg, handlers, obs, a.logger)
}

// fetchReport is printed by FetchMode.
type fetchReport struct {
	SnapshotID string                 `json:"snapshot_id"`
	CapturedAt time.Time              `json:"captured_at"`
	Fetch      domain.FetchSummary    `json:"fetch"`
	Stats      domain.MarketStats     `json:"stats"`
	Categories []domain.CategoryCount `json:"categories"`
	Top        []domain.Market        `json:"top"`
}

// fetchTopN is how many markets FetchMode includes in its report.
const fetchTopN = 10

// FetchMode runs a single aggregation and writes a JSON report to stdout. It
// is meant for checking upstream reachability from a deploy target.
func (a *App) FetchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting fetch mode")

	snap, err := deps.Cache.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("fetch mode: %w", err)
	}

	report := fetchReport{
		SnapshotID: snap.ID,
		CapturedAt: snap.CapturedAt.UTC(),
		Fetch:      snap.Summary,
		Stats:      query.Summarize(snap.Markets),
		Categories: query.Categories(snap.Markets),
		Top:        query.Apply(snap.Markets, domain.QueryOpts{Limit: fetchTopN}),
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("fetch mode: write report: %w", err)
	}
	return nil
}
