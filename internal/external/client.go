// Package external is the boundary between EcoRisk and the prediction service.
// Outbound HTTP calls go through BaseClient, which applies circuit breaking,
// optional retries with backoff, request-ID propagation and error mapping.
package external

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"ecorisk/internal/types"
)

// RetryPolicy configures the retry behavior for the BaseClient. A zero
// MaxRetries sends every request exactly once.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// NoRetry sends each request once.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// DefaultRetryPolicy is used for idempotent reads such as the health probe.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. Service clients
// embed or hold a BaseClient to inherit its behavior.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration)
	appError    func(status int, body []byte) bool
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep used between retries.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithApplicationErrors marks 5xx responses whose body the service produced
// deliberately. When fn reports true the response is handed to the caller
// as-is: it neither counts against the circuit breaker nor is retried.
func WithApplicationErrors(fn func(status int, body []byte) bool) BaseClientOption {
	return func(c *BaseClient) {
		c.appError = fn
	}
}

// BreakerSettings returns the circuit breaker settings used by NewBaseClient.
// The breaker opens after failures consecutive failed calls and probes again
// after 30 seconds.
func BreakerSettings(name string, failures uint32) gobreaker.Settings {
	if failures == 0 {
		failures = 1
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}
}

// NewBaseClient creates a BaseClient with its own circuit breaker.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	breakerFailures uint32,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](BreakerSettings(breakerName, breakerFailures))
	return NewBaseClientWithBreaker(httpClient, cb, retryPolicy, userAgent, opts...)
}

// NewBaseClientWithBreaker creates a BaseClient around a caller-provided
// breaker, so several clients can share one.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*http.Response],
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	bc := &BaseClient{
		client:      httpClient,
		breaker:     breaker,
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// BreakerState reports the current state of the circuit breaker.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do executes req with:
//  1. X-B3-TraceId injection from the request ID in the context
//  2. User-Agent injection
//  3. circuit breaker wrapping (429 and 5xx count as failures, except 5xx
//     application errors recognized by WithApplicationErrors)
//  4. retries on 429, 5xx and transport errors, honoring Retry-After
//
// Any response the service produced is returned to the caller, including a
// 5xx that survived every retry, since the prediction service reports
// application errors in a JSON body alongside a 500. The caller closes the
// body.
//
// Transport failures and an open breaker return a types.AppError with code
// upstream_unavailable. An exhausted 429 returns upstream_rate_limited.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if traceID := types.GetRequestID(req.Context()); traceID != "" {
		req.Header.Set("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	// Snapshot the body so it can be replayed on retries.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support",
				err,
			)
		}
		req.Body.Close()
	}

	var lastErr error

	maxAttempts := 1 + max(c.retryPolicy.MaxRetries, 0)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 && c.isApplicationError(r) {
				return r, nil
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if isBreakerRejection(err) {
			return nil, c.mapError(nil, err)
		}

		last := attempt == maxAttempts-1
		if resp != nil {
			switch {
			case last && resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, c.mapError(resp, err)
			case last:
				return resp, nil
			}
		}
		if last || req.Context().Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			break
		}

		wait := c.computeBackoff(attempt, resp)
		if resp != nil {
			resp.Body.Close()
		}
		c.sleepFn(wait)
	}

	return nil, c.mapError(nil, lastErr)
}

// isApplicationError buffers the body of r so the classifier can inspect it
// and the caller can still read it.
func (c *BaseClient) isApplicationError(r *http.Response) bool {
	if c.appError == nil {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxResponseBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return c.appError(r.StatusCode, body)
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// computeBackoff determines the wait before the next attempt. Retry-After
// wins when present; otherwise exponential backoff with jitter clamped to
// [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// mapError translates transport-level failures into AppErrors.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if isBreakerRejection(err) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; prediction service unavailable",
			err,
		)
	}

	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			"prediction service rate limit exceeded",
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamUnavailable,
		"prediction service request failed",
		err,
	)
}
