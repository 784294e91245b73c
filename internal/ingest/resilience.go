package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// retryPolicy controls exponential backoff behaviour for outbound calls.
type retryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var defaultRetryPolicy = retryPolicy{
	MaxRetries:      3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// resilientClient wraps an HTTP client with retries, exponential backoff and
// a per-source circuit breaker. Every ingestion source goes through one of
// these; a flaky upstream must not stall the rest of a fetch cycle.
type resilientClient struct {
	client  *http.Client
	policy  retryPolicy
	circuit *gobreaker.CircuitBreaker
}

func newResilientClient(client *http.Client, name string) *resilientClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &resilientClient{
		client:  client,
		policy:  defaultRetryPolicy,
		circuit: cb,
	}
}

// getJSON performs a GET with resilience and decodes the JSON response body
// into out.
func (c *resilientClient) getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	build := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	resp, err := c.do(ctx, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

// do executes the request with retries, exponential backoff and the circuit
// breaker. Rate-limit and 5xx responses count as retryable failures; an open
// circuit propagates immediately.
func (c *resilientClient) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.policy.MaxRetries {
			return nil, lastErr
		}

		delay := c.policy.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.policy.MaxInterval > 0 && delay > c.policy.MaxInterval {
			delay = c.policy.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
