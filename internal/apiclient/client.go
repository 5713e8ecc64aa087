// Package apiclient is the HTTP client shared by every upstream metadata
// source. Each call is paced, optionally rate limited, guarded by a circuit
// breaker and retried according to the configured policy.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"favfetch/internal/config"
	"favfetch/internal/logger"
	"favfetch/internal/pacer"
)

const (
	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 8 << 20
	// maxErrorBody caps how much of an error response is kept for logs.
	maxErrorBody = 512
)

// ErrUnexpectedStatus indicates an HTTP response outside the 2xx range.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusError carries the details of a non-2xx response.
type StatusError struct {
	URL    string
	Status string
	Body   string
	Code   int
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s %s: %s", ErrUnexpectedStatus, e.URL, e.Status, e.Body)
	}

	return fmt.Sprintf("%s: %s %s", ErrUnexpectedStatus, e.URL, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}

	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	Pacer      pacer.Pacer
	HTTPClient *http.Client
	Logger     *logger.Logger
	Header     http.Header
	Name       string
	UserAgent  string
	Retry      config.RetryPolicy
	Breaker    config.BreakerConfig
	MaxRPS     float64
}

// Request describes one outbound call.
type Request struct {
	Header      http.Header
	Method      string
	URL         string
	ContentType string
	Body        []byte
}

// Stats counts what a client did during a run.
type Stats struct {
	Calls    int
	Failures int
	Retries  int
	Rejected int
}

// Add returns the sum of s and other.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Calls:    s.Calls + other.Calls,
		Failures: s.Failures + other.Failures,
		Retries:  s.Retries + other.Retries,
		Rejected: s.Rejected + other.Rejected,
	}
}

// Client manages HTTP communication with a single upstream API.
type Client struct {
	http    *http.Client
	pacer   pacer.Pacer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *logger.Logger
	header  http.Header
	name    string
	agent   string
	retry   config.RetryPolicy
	stats   Stats
}

// New creates a client. A zero Retry policy means a single attempt.
func New(opts Options) *Client {
	retry := opts.Retry
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := retry.GetTimeout()
		if timeout <= 0 {
			timeout = 30 * time.Second
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	p := opts.Pacer
	if p == nil {
		p = pacer.NewFixed(0)
	}

	c := &Client{
		http:   httpClient,
		pacer:  p,
		log:    log.With("api", opts.Name),
		header: opts.Header.Clone(),
		name:   opts.Name,
		agent:  opts.UserAgent,
		retry:  retry,
	}

	if opts.MaxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}

	if opts.Breaker.MaxConsecutiveFailures > 0 {
		c.breaker = newBreaker(opts.Name, opts.Breaker, c.log)
	}

	return c
}

func newBreaker(name string, cfg config.BreakerConfig, log *logger.Logger) *gobreaker.CircuitBreaker[[]byte] {
	threshold := uint32(cfg.MaxConsecutiveFailures)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A 404 is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFound(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Name returns the upstream name used in logs.
func (c *Client) Name() string {
	return c.name
}

// Stats returns the counters accumulated so far.
func (c *Client) Stats() Stats {
	return c.stats
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL}, out)
}

// Do performs req with pacing, rate limiting, circuit breaking and retries,
// then decodes the response body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.stats.Retries++

			if err := sleep(ctx, c.retry.GetRetryDelay(attempt)); err != nil {
				return err
			}
		}

		body, err := c.attempt(ctx, req)
		if err == nil {
			if out == nil {
				return nil
			}

			if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
				return fmt.Errorf("failed to decode %s response: %w", redact(req.URL), decodeErr)
			}

			return nil
		}

		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			break
		}

		c.log.Debug("retrying request", "url", redact(req.URL), "attempt", attempt, "err", err)
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, req Request) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.stats.Calls++
	c.log.Debug("calling upstream", "method", req.Method, "url", redact(req.URL))

	var (
		body []byte
		err  error
	)

	if c.breaker != nil {
		body, err = c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.stats.Rejected++
		}
	} else {
		body, err = c.roundTrip(ctx, req)
	}

	if err != nil {
		c.stats.Failures++
	}

	return body, err
}

func (c *Client) roundTrip(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader = http.NoBody
	if len(req.Body) > 0 {
		reqBody = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if c.agent != "" {
		httpReq.Header.Set("User-Agent", c.agent)
	}

	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	for key, values := range c.header {
		httpReq.Header[key] = values
	}

	for key, values := range req.Header {
		httpReq.Header[key] = values
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", redact(req.URL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}

		return nil, &StatusError{
			URL:    redact(req.URL),
			Status: resp.Status,
			Body:   snippet,
			Code:   resp.StatusCode,
		}
	}

	return body, nil
}

// isRetryable determines if we should retry based on the failure.
func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	code := StatusCode(err)
	if code == 0 {
		// Transport failure.
		return true
	}

	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}

	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// redact strips the query string so API keys never reach the logs.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}

	u.RawQuery = ""
	u.User = nil

	return u.String()
}
