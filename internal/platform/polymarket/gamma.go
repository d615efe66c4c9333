package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/predibet/internal/domain"
	"github.com/alanyoungcy/predibet/internal/metrics"
)

const (
	// DefaultGammaHost is the public Gamma API root.
	DefaultGammaHost = "https://gamma-api.polymarket.com"
	// DefaultTimeout bounds every individual page request.
	DefaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// DefaultHeaders are sent with every Gamma request. The endpoint rejects or
// throttles requests that do not look like they come from polymarket.com.
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Accept":     "application/json, text/plain, */*",
	"Origin":     "https://polymarket.com",
	"Referer":    "https://polymarket.com/",
}

// GammaClient is the REST client for the Polymarket Gamma markets listing.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	metrics    *metrics.Metrics
}

// GammaOption configures a GammaClient.
type GammaOption func(*GammaClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) GammaOption {
	return func(g *GammaClient) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) GammaOption {
	return func(g *GammaClient) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithHeaders overrides individual default headers. Empty values are ignored
// so a partially filled config never blanks a header.
func WithHeaders(h map[string]string) GammaOption {
	return func(g *GammaClient) {
		for k, v := range h {
			if v != "" {
				g.headers[k] = v
			}
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) GammaOption {
	return func(g *GammaClient) {
		g.metrics = m
	}
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, opts ...GammaOption) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaHost
	}
	g := &GammaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		headers: make(map[string]string, len(DefaultHeaders)),
	}
	for k, v := range DefaultHeaders {
		g.headers[k] = v
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchPage requests one page of live markets starting at offset. Only live
// markets are requested: active=true, closed=false, archived=false.
func (g *GammaClient) FetchPage(ctx context.Context, offset, limit int) ([]RawMarket, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("archived", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	start := time.Now()
	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	g.metrics.ObserveUpstream(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets offset=%d: %w", offset, err)
	}

	return DecodePage(body)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx responses to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > maxErrorBody {
		bodyStr = bodyStr[:maxErrorBody] + "..."
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
