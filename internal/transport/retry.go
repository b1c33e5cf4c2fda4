// Package transport provides the retrying HTTP layer shared by the Phoenix
// and Arize API clients: exponential backoff on transient failures,
// immediate return on anything the caller can act on.
package transport

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/phxport/phxport/internal/config"
	"github.com/phxport/phxport/internal/errors"
)

// timeSleep is a wrapper for time.After that can be overridden in tests.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Policy is the retry/backoff policy applied to every request.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration
	// Multiplier is the growth factor between retries.
	Multiplier float64
}

// PolicyFromConfig converts the configuration section into a Policy.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.Multiplier,
	}
}

// Client executes HTTP requests with retry. Headers set on the client are
// applied to every request.
type Client struct {
	httpClient *http.Client
	policy     Policy
	headers    http.Header
	logger     zerolog.Logger
}

// New creates a Client with the given per-request timeout and retry policy.
func New(timeout time.Duration, policy Policy, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		headers:    http.Header{},
		logger:     logger,
	}
}

// SetHeader sets a header applied to every request.
func (c *Client) SetHeader(key, value string) {
	c.headers.Set(key, value)
}

// Do executes one HTTP request with retry. The body, when non-nil, is
// buffered so it can be replayed on each attempt. The response body is fully
// read and returned so no attempt leaks a connection.
//
// Responses with status >= 400 are converted to categorized errors; callers
// never see a non-2xx response.
func (c *Client) Do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var lastErr error
	backoff := c.policy.InitialBackoff

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Debug().
				Int("attempt", attempt).
				Int("max_attempts", c.policy.MaxAttempts).
				Str("method", method).
				Str("url", url).
				Msg("retrying request")
		}

		respBody, err := c.doOnce(ctx, method, url, body)
		if err == nil {
			if attempt > 1 {
				c.logger.Info().
					Int("attempt", attempt).
					Str("url", url).
					Msg("request succeeded after retry")
			}
			return respBody, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
		if attempt < c.policy.MaxAttempts {
			delay := backoff
			if hint := retryAfterHint(err); hint > 0 {
				delay = min(hint, c.policy.MaxBackoff)
			}

			c.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", c.policy.MaxAttempts).
				Dur("backoff", delay).
				Msg("request failed, will retry after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timeSleep(delay):
				backoff = nextBackoff(backoff, c.policy)
			}
		}
	}

	c.logger.Error().
		Err(lastErr).
		Int("max_attempts", c.policy.MaxAttempts).
		Str("url", url).
		Msg("request failed after max retries")

	return nil, fmt.Errorf("%w: %w: %w", errors.ErrRequestFailed, errors.ErrMaxRetriesExceeded, lastErr)
}

// doOnce executes a single attempt.
func (c *Client) doOnce(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if err := statusError(resp.StatusCode, respBody, resp.Header.Get("Retry-After")); err != nil {
		return nil, err
	}
	return respBody, nil
}

// StatusError is an HTTP error response converted to an error. It unwraps
// to a categorized sentinel so callers can use errors.Is.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Detail is a truncated excerpt of the response body.
	Detail string
	// RetryAfter is the delay the server requested via the Retry-After
	// header, zero when absent.
	RetryAfter time.Duration

	sentinel error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.sentinel)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Code, e.sentinel, e.Detail)
}

// Unwrap returns the categorized sentinel error.
func (e *StatusError) Unwrap() error {
	return e.sentinel
}

// statusError converts an error status code to a *StatusError with the
// matching sentinel. The first bytes of the body are kept for diagnostics.
func statusError(code int, body []byte, retryAfter string) error {
	if code < 400 {
		return nil
	}

	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200]
	}

	sentinel := errors.ErrUnexpectedStatus
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = errors.ErrAuthFailed
		detail = ""
	case http.StatusNotFound:
		sentinel = errors.ErrNotFound
		detail = ""
	case http.StatusConflict:
		sentinel = errors.ErrAlreadyExists
		detail = ""
	case http.StatusTooManyRequests:
		sentinel = errors.ErrRateLimited
	}

	return &StatusError{Code: code, Detail: detail, RetryAfter: parseRetryAfter(retryAfter), sentinel: sentinel}
}

// parseRetryAfter reads a Retry-After header value, either delay-seconds or
// an HTTP-date. Malformed or past values yield zero.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// retryAfterHint extracts the server-requested delay from a request error.
func retryAfterHint(err error) time.Duration {
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.RetryAfter
	}
	return 0
}

// isRetryable determines whether an error should be retried.
// Context errors and client-side (4xx) errors are final; network failures,
// rate limits and server errors are transient.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// HTTP errors: retry rate limits and server errors, never other 4xx.
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests {
			return true
		}
		return statusErr.Code >= 500
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	// Remaining transport-level failures (connection refused, reset, EOF)
	// are treated as transient.
	return true
}

// nextBackoff grows the backoff by the policy multiplier, capped at MaxBackoff.
func nextBackoff(current time.Duration, p Policy) time.Duration {
	next := time.Duration(float64(current) * p.Multiplier)
	if next > p.MaxBackoff {
		return p.MaxBackoff
	}
	return next
}
