package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/metrics"
	"github.com/alanyoungcy/predibet/internal/notify"
)

// DefaultCacheTTL is how long a snapshot is served before the next request
// triggers a refresh.
const DefaultCacheTTL = 300 * time.Second

// Notification event types raised by the cache.
const (
	EventSnapshotEmpty   = "snapshot_empty"
	EventSnapshotPartial = "snapshot_partial"
)

// notifyTimeout bounds delivery of a refresh notification.
const notifyTimeout = 10 * time.Second

// Loader produces a fresh snapshot.
type Loader interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// EventNotifier delivers operator notifications. notify.Notifier implements it.
type EventNotifier interface {
	Notify(ctx context.Context, ev notify.Event) error
}

// CacheResult is a snapshot plus whether it was served without refreshing.
type CacheResult struct {
	Snapshot *domain.Snapshot
	Cached   bool
}

// SnapshotCache holds the current snapshot and refreshes it on demand once it
// is older than the TTL. Readers never block on a fresh snapshot. Refreshes
// are serialized: concurrent requests that find the snapshot stale wait for a
// single in-flight refresh and then share its result.
type SnapshotCache struct {
	loader   Loader
	ttl      time.Duration
	now      func() time.Time
	notifier EventNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	current atomic.Pointer[domain.Snapshot]
	mu      sync.Mutex // held for the duration of a refresh
}

// CacheOption configures a SnapshotCache.
type CacheOption func(*SnapshotCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *SnapshotCache) { c.now = now }
}

// WithNotifier sends empty and partial snapshot events to n.
func WithNotifier(n EventNotifier) CacheOption {
	return func(c *SnapshotCache) { c.notifier = n }
}

// WithCacheMetrics records hits and misses.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *SnapshotCache) { c.metrics = m }
}

// NewSnapshotCache creates an empty cache. The first Get triggers a load.
func NewSnapshotCache(loader Loader, ttl time.Duration, logger *slog.Logger, opts ...CacheOption) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &SnapshotCache{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With(slog.String("component", "snapshot_cache")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time to live.
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Current returns the held snapshot without refreshing, or nil before the
// first load.
func (c *SnapshotCache) Current() *domain.Snapshot {
	return c.current.Load()
}

// Get returns a snapshot no older than the TTL, refreshing if needed. A
// refresh started by Get is not canceled when ctx is.
func (c *SnapshotCache) Get(ctx context.Context) (CacheResult, error) {
	if snap := c.fresh(); snap != nil {
		c.metrics.CacheHit()
		return CacheResult{Snapshot: snap, Cached: true}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap := c.fresh(); snap != nil {
		c.metrics.CacheHit()
		return CacheResult{Snapshot: snap, Cached: true}, nil
	}

	c.metrics.CacheMiss()
	snap, err := c.refreshLocked(context.WithoutCancel(ctx))
	if err != nil {
		return CacheResult{}, err
	}
	return CacheResult{Snapshot: snap, Cached: false}, nil
}

// Refresh loads a new snapshot regardless of the held one's age.
func (c *SnapshotCache) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *SnapshotCache) fresh() *domain.Snapshot {
	snap := c.current.Load()
	if snap == nil || snap.Age(c.now()) >= c.ttl {
		return nil
	}
	return snap
}

// refreshLocked must be called with c.mu held. An empty result replaces the
// held snapshot like any other; a Loader error leaves it untouched.
func (c *SnapshotCache) refreshLocked(ctx context.Context) (*domain.Snapshot, error) {
	c.logger.InfoContext(ctx, "snapshot_cache: refreshing", slog.Duration("ttl", c.ttl))

	loaded, err := c.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot_cache: load: %w", err)
	}
	if loaded == nil {
		loaded = &domain.Snapshot{}
	}

	// Stamp with the cache clock so freshness checks share one time source.
	snap := *loaded
	snap.CapturedAt = c.now()
	c.current.Store(&snap)

	switch {
	case snap.Len() == 0:
		c.logger.WarnContext(ctx, "snapshot_cache: refresh produced no markets",
			slog.String("stop_reason", snap.Summary.StopReason),
			slog.String("error", snap.Summary.Error),
		)
		c.notify(ctx, snapshotEvent(&snap, EventSnapshotEmpty, slog.LevelError, "Market snapshot is empty"))
	case snap.Summary.Partial():
		c.logger.WarnContext(ctx, "snapshot_cache: refresh ended early",
			slog.Int("markets", snap.Len()),
			slog.String("error", snap.Summary.Error),
		)
		c.notify(ctx, snapshotEvent(&snap, EventSnapshotPartial, slog.LevelWarn, "Market snapshot is partial"))
	}

	return &snap, nil
}

// snapshotEvent describes how the refresh behind snap ended.
func snapshotEvent(snap *domain.Snapshot, typ string, level slog.Level, title string) notify.Event {
	sum := snap.Summary
	return notify.Event{
		Type:    typ,
		Level:   level,
		Title:   title,
		Message: sum.Error,
		Fields: []notify.Field{
			{Name: "snapshot_id", Value: snap.ID},
			{Name: "markets", Value: strconv.Itoa(snap.Len())},
			{Name: "pages", Value: strconv.Itoa(sum.Pages)},
			{Name: "records", Value: strconv.Itoa(sum.Records)},
			{Name: "skipped", Value: strconv.Itoa(sum.Skipped)},
			{Name: "stop_reason", Value: sum.StopReason},
		},
		Time: snap.CapturedAt,
	}
}

// notify delivers in the background, outside the refresh lock.
func (c *SnapshotCache) notify(ctx context.Context, ev notify.Event) {
	if c.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := c.notifier.Notify(ctx, ev); err != nil {
			c.logger.WarnContext(ctx, "snapshot_cache: notification failed",
				slog.String("event", ev.Type),
				slog.String("error", err.Error()),
			)
		}
	}()
}
