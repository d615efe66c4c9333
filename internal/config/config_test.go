package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, 15*time.Second, cfg.Polymarket.Timeout.Duration)
	assert.Equal(t, 100, cfg.Polymarket.PageSize)
	assert.Equal(t, 1000, cfg.Polymarket.MaxTotal)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
mode = "fetch"
log_level = "debug"

[polymarket]
page_size = 50
timeout = "5s"
user_agent = "predibet/1.0"

[cache]
ttl = "90s"
warm_on_start = true

[server]
port = 9090
static_dir = "./static"

[server.rate_limit]
enabled = true
requests = 10
window = "30s"

[redis]
enabled = true
addr = "redis:6379"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "fetch", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 50, cfg.Polymarket.PageSize)
	assert.Equal(t, 1000, cfg.Polymarket.MaxTotal)
	assert.Equal(t, 5*time.Second, cfg.Polymarket.Timeout.Duration)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration)
	assert.True(t, cfg.Cache.WarmOnStart)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window.Duration)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "predibet/1.0", cfg.GammaHeaders()["User-Agent"])
	assert.Empty(t, cfg.GammaHeaders()["Origin"])
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Server.Port, cfg.Server.Port)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[cache]
tll = "90s"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.tll")
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeConfig(t, `mode = `)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("PREDIBET_CACHE_TTL", "45s")
	t.Setenv("PREDIBET_NOTIFY_EVENTS", " snapshot_empty , ,")
	t.Setenv("PREDIBET_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PREDIBET_POLYMARKET_MAX_TOTAL", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, []string{"snapshot_empty"}, cfg.Notify.Events)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 1000, cfg.Polymarket.MaxTotal, "unparsable values are ignored")

	t.Setenv("PREDIBET_SERVER_PORT", "7100")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port)
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.LogFormat = "xml"
	cfg.Polymarket.GammaHost = "gamma-api"
	cfg.Polymarket.PageSize = 0
	cfg.Cache.TTL.Duration = 0
	cfg.Server.Port = 70000
	cfg.Server.RateLimit.Enabled = true
	cfg.Notify.TelegramToken = "token-only"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown mode "trade"`,
		`unknown log_format "xml"`,
		"gamma_host must be an absolute URL",
		"page_size must be >= 1",
		"cache: ttl must be > 0",
		"port must be 1-65535",
		"rate_limit requires redis.enabled",
		"telegram_token and telegram_chat_id",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"
	cfg.Notify.DiscordWebhookURL = "https://discord.com/api/webhooks/x"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Redis.Password)
	assert.Equal(t, "***", out.Notify.TelegramToken)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Empty(t, out.Notify.TelegramChatID)

	out.Notify.Events[0] = "mutated"
	assert.Equal(t, "snapshot_empty", cfg.Notify.Events[0])
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}
