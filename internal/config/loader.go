package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PREDIBET_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults plus
// environment are used instead. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Fall through to defaults.
		case err != nil:
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, fmt.Errorf("config: unknown keys in %s: %v", path, undecoded)
			}
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PREDIBET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "PREDIBET_POLYMARKET_GAMMA_HOST")
	setDuration(&cfg.Polymarket.Timeout, "PREDIBET_POLYMARKET_TIMEOUT")
	setInt(&cfg.Polymarket.PageSize, "PREDIBET_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxTotal, "PREDIBET_POLYMARKET_MAX_TOTAL")
	setStr(&cfg.Polymarket.UserAgent, "PREDIBET_POLYMARKET_USER_AGENT")
	setStr(&cfg.Polymarket.Origin, "PREDIBET_POLYMARKET_ORIGIN")
	setStr(&cfg.Polymarket.Referer, "PREDIBET_POLYMARKET_REFERER")

	// ── Cache ──
	setDuration(&cfg.Cache.TTL, "PREDIBET_CACHE_TTL")
	setBool(&cfg.Cache.WarmOnStart, "PREDIBET_CACHE_WARM_ON_START")

	// ── Server ──
	// PORT is set by hosting platforms; the prefixed variable wins.
	setInt(&cfg.Server.Port, "PORT")
	setInt(&cfg.Server.Port, "PREDIBET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PREDIBET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.StaticDir, "PREDIBET_SERVER_STATIC_DIR")
	setBool(&cfg.Server.RateLimit.Enabled, "PREDIBET_SERVER_RATE_LIMIT_ENABLED")
	setInt(&cfg.Server.RateLimit.Requests, "PREDIBET_SERVER_RATE_LIMIT_REQUESTS")
	setDuration(&cfg.Server.RateLimit.Window, "PREDIBET_SERVER_RATE_LIMIT_WINDOW")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "PREDIBET_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PREDIBET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PREDIBET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PREDIBET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PREDIBET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PREDIBET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PREDIBET_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "PREDIBET_REDIS_KEY_PREFIX")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PREDIBET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PREDIBET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PREDIBET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PREDIBET_NOTIFY_EVENTS")

	// ── Metrics ──
	setBool(&cfg.Metrics.Enabled, "PREDIBET_METRICS_ENABLED")
	setStr(&cfg.Metrics.Namespace, "PREDIBET_METRICS_NAMESPACE")

	// ── Top-level ──
	setStr(&cfg.Mode, "PREDIBET_MODE")
	setStr(&cfg.LogLevel, "PREDIBET_LOG_LEVEL")
	setStr(&cfg.LogFormat, "PREDIBET_LOG_FORMAT")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
