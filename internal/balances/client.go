// Package balances provides the HTTP client for the token balances API.
// One logical query fetches all holdings for (chain, wallet); transient
// failures are retried with exponential backoff and bounded jitter, and a
// shared rate limiter keeps the client inside the API's request budget.
package balances

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wallet-risk-scorer/internal/domain"
	"wallet-risk-scorer/internal/observability"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 15 * time.Second

// maxErrorBodyBytes limits how much of an error response is kept for logs.
const maxErrorBodyBytes = 2048

// Client fetches token balances over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	policy  RetryPolicy
	limiter *rate.Limiter
	sleep   SleepFunc
	rng     *rand.Rand
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithRetryPolicy sets the backoff schedule for transient failures.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithRateLimiter sets the shared request limiter.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithSleep replaces the backoff sleep. Tests inject a no-op recorder here
// so retry schedules can be asserted without waiting.
func WithSleep(sleep SleepFunc) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRand sets the jitter randomness source. Tests pass a seeded source
// for reproducible schedules.
func WithRand(rng *rand.Rand) ClientOption {
	return func(c *Client) {
		c.rng = rng
	}
}

// WithMetrics sets the metrics sink for per-attempt outcome, latency and
// retry counters.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a balances API client. The API key is sent as a bearer
// credential and never appears in URLs or logs.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		policy:  DefaultRetryPolicy(),
		sleep:   sleepWithContext,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchChainBalances fetches all holdings for one wallet on one chain.
// Transient failures are retried per the client's policy; the returned
// error is always a *FetchError once the query is given up on.
func (c *Client) FetchChainBalances(ctx context.Context, chain domain.ChainID, wallet domain.WalletAddress) ([]domain.ChainBalanceEntry, error) {
	endpoint := fmt.Sprintf("%s/%d/address/%s/balances_v2/", c.baseURL, chain, url.PathEscape(wallet.String()))
	chainLabel := strconv.FormatInt(int64(chain), 10)

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.policy.jittered(attempt, c.rng)
			c.metrics.RecordFetchRetry()
			c.logger.Debug().
				Int64("chain", int64(chain)).
				Str("wallet", wallet.String()).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying balance fetch")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		entries, status, err := c.fetchOnce(ctx, endpoint, chain)
		if err == nil {
			c.metrics.RecordFetch(chainLabel, time.Since(start).Seconds(), "ok")
			return entries, nil
		}
		c.metrics.RecordFetch(chainLabel, time.Since(start).Seconds(), "error")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if status != 0 && !retryableStatus(status) {
			return nil, &FetchError{
				Kind:       KindPermanent,
				Chain:      chain,
				Wallet:     wallet,
				StatusCode: status,
				Attempts:   attempt,
				Err:        err,
			}
		}

		lastErr = err
		lastStatus = status
		c.logger.Warn().
			Int64("chain", int64(chain)).
			Str("wallet", wallet.String()).
			Int("attempt", attempt).
			Int("status", status).
			Err(err).
			Msg("transient balance fetch failure")
	}

	return nil, &FetchError{
		Kind:       KindTransient,
		Chain:      chain,
		Wallet:     wallet,
		StatusCode: lastStatus,
		Attempts:   c.policy.MaxAttempts,
		Err:        fmt.Errorf("retries exhausted: %w", lastErr),
	}
}

// fetchOnce performs a single HTTP round trip. It returns the HTTP status
// for classification; status 0 means the request never got a response.
func (c *Client) fetchOnce(ctx context.Context, endpoint string, chain domain.ChainID) ([]domain.ChainBalanceEntry, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed balancesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error {
		return nil, resp.StatusCode, fmt.Errorf("api error: %s", parsed.ErrorMessage)
	}
	if parsed.Data == nil {
		return nil, resp.StatusCode, errors.New("api response missing data")
	}

	entries := make([]domain.ChainBalanceEntry, 0, len(parsed.Data.Items))
	for _, item := range parsed.Data.Items {
		entries = append(entries, item.toEntry(chain))
	}
	return entries, resp.StatusCode, nil
}

// retryableStatus reports whether an HTTP status is worth retrying.
// 429 and request timeout are explicit rate/transient signals; all 5xx are
// assumed recoverable; every other 4xx is permanent.
func retryableStatus(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusRequestTimeout:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
