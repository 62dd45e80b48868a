// Package fetch provides the resilient HTTP layer shared by every upstream
// call: GET with a fixed header set, JSON decoding, and bounded
// retry-with-backoff for transient failures. No other package touches the
// network directly.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/pkg/logging"
)

// Prometheus metrics for upstream HTTP traffic.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updater_http_requests_total",
		Help: "Total upstream HTTP requests by status",
	}, []string{"status"})

	fetchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "updater_http_request_duration_seconds",
		Help:    "Upstream HTTP request duration in seconds by host",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"host"})

	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updater_http_retries_total",
		Help: "Total retry attempts by error class",
	}, []string{"class"})

	fetchExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updater_http_retry_exhausted_total",
		Help: "Requests that exhausted all attempts by error class",
	}, []string{"class"})
)

// backoffBase is the exponential backoff base: the delay after the n-th
// failed attempt is BackoffUnit * 1.5^n.
const backoffBase = 1.5

// Config holds the fetcher configuration. The header fields are static
// request decoration, not behavior: the Platform/Language/Referer/Origin
// set is what warframe.market expects and is harmless for the WFCD raw
// endpoints.
type Config struct {
	UserAgent string
	Platform  string
	Language  string
	Referer   string
	Origin    string

	// Timeout applies per HTTP call.
	Timeout time.Duration

	// MaxAttempts is the total attempt ceiling, including the first try.
	MaxAttempts int

	// BackoffUnit scales the retry delay (1s in production, shrunk in tests).
	BackoffUnit time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		UserAgent:   "mosestyle-warframe-relic/2.5 (+github pages actions)",
		Platform:    "pc",
		Language:    "en",
		Referer:     "https://warframe.market/",
		Origin:      "https://warframe.market",
		Timeout:     60 * time.Second,
		MaxAttempts: 4,
		BackoffUnit: time.Second,
	}
}

// Client performs resilient JSON fetches.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     zerolog.Logger
}

// New creates a fetch client. Zero config fields fall back to defaults.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = def.BackoffUnit
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logging.NewLogger("fetch"),
	}
}

// GetJSON performs a GET against url and decodes the JSON body into v.
// Transient failures are retried with exponential backoff up to the attempt
// ceiling, then surfaced wrapped in *Error. A 404 or 403 propagates
// immediately without retry so callers can treat the resource as absent.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			fetchRetriesTotal.WithLabelValues(string(Classify(lastErr))).Inc()
			if err := c.wait(ctx, attempt-1); err != nil {
				return err
			}
		}

		body, err := c.do(ctx, url)
		if err == nil {
			err = json.Unmarshal(body, v)
			if err == nil {
				return nil
			}
			err = fmt.Errorf("decode %s: %w", url, err)
		}

		if Classify(err) == ClassNotFound {
			return err
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt+1).
			Str("class", string(Classify(err))).
			Msg("Request failed")
	}

	if lastErr == nil {
		lastErr = errors.New("no attempt recorded an error")
	}

	fetchExhaustedTotal.WithLabelValues(string(Classify(lastErr))).Inc()
	c.logger.Error().
		Err(lastErr).
		Str("url", url).
		Int("max_attempts", c.cfg.MaxAttempts).
		Msg("Attempts exhausted")

	return &Error{URL: url, Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

// do executes a single GET and returns the raw body. Any status >= 400
// yields a *StatusError.
func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "close")
	req.Header.Set("Platform", c.cfg.Platform)
	req.Header.Set("Language", c.cfg.Language)
	req.Header.Set("Referer", c.cfg.Referer)
	req.Header.Set("Origin", c.cfg.Origin)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fetchRequestDuration.WithLabelValues(req.URL.Host).Observe(time.Since(start).Seconds())
	if err != nil {
		fetchRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	return body, nil
}

// wait sleeps for BackoffUnit * 1.5^exp, honoring context cancellation.
func (c *Client) wait(ctx context.Context, exp int) error {
	delay := time.Duration(float64(c.cfg.BackoffUnit) * math.Pow(backoffBase, float64(exp)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
