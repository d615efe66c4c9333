package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predibet/internal/cache/redis"
	"github.com/alanyoungcy/predibet/internal/config"
	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/metrics"
	"github.com/alanyoungcy/predibet/internal/notify"
	"github.com/alanyoungcy/predibet/internal/platform/polymarket"
	"github.com/alanyoungcy/predibet/internal/service"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	// Upstream
	Gamma     *polymarket.GammaClient
	Paginator *polymarket.Paginator

	// Snapshot pipeline
	Aggregator *service.Aggregator
	Cache      *service.SnapshotCache
	Markets    *service.MarketService

	// Optional infrastructure; nil when disabled.
	Metrics     *metrics.Metrics
	RateLimiter domain.RateLimiter
	Notifier    *notify.Notifier
}

// redisDialTimeout bounds the startup ping.
const redisDialTimeout = 5 * time.Second

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Metrics ---
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.New(cfg.Metrics.Namespace)
	}

	// --- Redis (only for the shared rate limiter) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			MaxRetries:  cfg.Redis.MaxRetries,
			TLSEnabled:  cfg.Redis.TLSEnabled,
			DialTimeout: redisDialTimeout,
			KeyPrefix:   cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- Notifications ---
	deps.Notifier = notify.NewNotifier(buildSenders(cfg, logger), cfg.Notify.Events, logger)

	// --- Upstream ---
	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost,
		polymarket.WithTimeout(cfg.Polymarket.Timeout.Duration),
		polymarket.WithHeaders(cfg.GammaHeaders()),
		polymarket.WithMetrics(deps.Metrics),
	)
	deps.Paginator = polymarket.NewPaginator(deps.Gamma, polymarket.PaginatorConfig{
		PageSize: cfg.Polymarket.PageSize,
		MaxTotal: cfg.Polymarket.MaxTotal,
	}, logger.With(slog.String("component", "paginator")), deps.Metrics)

	// --- Snapshot pipeline ---
	deps.Aggregator = service.NewAggregator(deps.Paginator, deps.Metrics, logger)

	cacheOpts := []service.CacheOption{service.WithCacheMetrics(deps.Metrics)}
	if deps.Notifier.Enabled() {
		cacheOpts = append(cacheOpts, service.WithNotifier(deps.Notifier))
	}
	deps.Cache = service.NewSnapshotCache(deps.Aggregator, cfg.Cache.TTL.Duration, logger, cacheOpts...)
	deps.Markets = service.NewMarketService(deps.Cache, logger)

	return deps, cleanup, nil
}

// buildSenders returns one Sender per configured channel. A Telegram bot that
// cannot be created is logged and skipped rather than failing startup.
func buildSenders(cfg *config.Config, logger *slog.Logger) []notify.Sender {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(notify.TelegramConfig{
			Token:  cfg.Notify.TelegramToken,
			ChatID: cfg.Notify.TelegramChatID,
		})
		if err != nil {
			logger.Warn("wire: telegram notifications disabled",
				slog.String("error", err.Error()),
			)
		} else {
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, "predibet"))
	}
	return senders
}
