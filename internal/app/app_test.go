package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/predibet/internal/config"
	"github.com/alanyoungcy/predibet/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gammaStub serves total markets with ascending volume and a category on the
// even ones.
func gammaStub(t *testing.T, total int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var items []string
		for i := offset; i < total && i < offset+limit; i++ {
			cat := ""
			if i%2 == 0 {
				cat = `,"category":"Sports"`
			}
			items = append(items, fmt.Sprintf(`{"id":"m%d","question":"Q%d","volume":"%d"%s}`, i, i, i*10, cat))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(gammaURL string) *config.Config {
	cfg := config.Defaults()
	cfg.Polymarket.GammaHost = gammaURL
	cfg.Polymarket.PageSize = 5
	cfg.Notify.Events = nil
	return &cfg
}

func TestWire_WithoutRedis(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	deps, cleanup, err := Wire(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, deps.Cache)
	assert.NotNil(t, deps.Markets)
	assert.NotNil(t, deps.Metrics)
	assert.Nil(t, deps.RateLimiter)
	assert.False(t, deps.Notifier.Enabled())
	assert.Equal(t, cfg.Cache.TTL.Duration, deps.Cache.TTL())
}

func TestWire_DiscordSender(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Notify.DiscordWebhookURL = "http://127.0.0.1:1/webhook"
	cfg.Metrics.Enabled = false

	deps, cleanup, err := Wire(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, deps.Notifier.Enabled())
	assert.Nil(t, deps.Metrics)
}

func TestWire_RedisUnreachable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	_, _, err := Wire(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wire: redis")
}

func TestRun_FetchMode(t *testing.T) {
	gamma := gammaStub(t, 12)
	cfg := testConfig(gamma.URL)
	cfg.Mode = "fetch"

	var out bytes.Buffer
	a := New(cfg, testLogger())
	a.out = &out
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))

	var report struct {
		SnapshotID string `json:"snapshot_id"`
		Fetch      struct {
			Pages      int    `json:"pages"`
			Records    int    `json:"records"`
			StopReason string `json:"stop_reason"`
		} `json:"fetch"`
		Stats struct {
			TotalMarkets int     `json:"total_markets"`
			TotalVolume  float64 `json:"total_volume"`
		} `json:"stats"`
		Categories []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"categories"`
		Top []struct {
			ID string `json:"id"`
		} `json:"top"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())

	assert.NotEmpty(t, report.SnapshotID)
	assert.Equal(t, 3, report.Fetch.Pages)
	assert.Equal(t, 12, report.Fetch.Records)
	assert.Equal(t, "short_page", report.Fetch.StopReason)
	assert.Equal(t, 12, report.Stats.TotalMarkets)
	assert.InDelta(t, 660, report.Stats.TotalVolume, 1e-9)
	require.Len(t, report.Categories, 2)
	assert.Equal(t, 6, report.Categories[0].Count)
	require.Len(t, report.Top, fetchTopN)
	assert.Equal(t, "m11", report.Top[0].ID)
}

func TestRun_UnknownMode(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Mode = "trade"
	a := New(cfg, testLogger())
	defer a.Close()
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mode")
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRun_ServerModeServesAndStops(t *testing.T) {
	gamma := gammaStub(t, 3)
	cfg := testConfig(gamma.URL)
	cfg.Server.Port = freePort(t)
	cfg.Cache.WarmOnStart = true

	ctx, cancel := context.WithCancel(context.Background())
	a := New(cfg, testLogger())
	defer a.Close()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/ready")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond, "warm-up should make the cache ready")

	resp, err := http.Get(base + "/api/markets/top/1")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, true, body["cached"])
	assert.EqualValues(t, 3, body["total_available"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server mode did not stop after cancel")
	}
}

func TestWriteTimeout(t *testing.T) {
	tests := []struct {
		name     string
		pageSize int
		maxTotal int
		want     time.Duration
	}{
		{name: "defaults", pageSize: 100, maxTotal: 1000, want: 10*15*time.Second + writeSlack},
		{name: "partial last page", pageSize: 300, maxTotal: 1000, want: 4*15*time.Second + writeSlack},
		{name: "small runs keep the floor", pageSize: 100, maxTotal: 100, want: server.DefaultWriteTimeout},
		{name: "invalid sizes fall back", pageSize: 0, maxTotal: 1000, want: server.DefaultWriteTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := config.Defaults().Polymarket
			pm.PageSize = tt.pageSize
			pm.MaxTotal = tt.maxTotal
			assert.Equal(t, tt.want, writeTimeout(pm))
		})
	}
}
