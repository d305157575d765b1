// Package clients holds HTTP clients for the optional upstream
// services the charging engine talks to.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// BaseClient provides simple request helpers guarded by a circuit
// breaker, so a dead upstream cannot stall charging flows.
type BaseClient struct {
	baseURL string
	client  HTTPDoer
	breaker *gobreaker.CircuitBreaker
}

type doResult struct {
	status int
	body   []byte
}

// NewBaseClient builds a client for baseURL.
func NewBaseClient(name, baseURL string, client HTTPDoer, logger *zap.Logger) *BaseClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		breaker: breaker,
	}
}

func (c *BaseClient) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes the HTTP request through the breaker and returns
// status/body. Responses with a 5xx status count as breaker failures.
func (c *BaseClient) Do(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, method, path, body, headers)
	})
	if err != nil {
		return 0, nil, err
	}
	res := result.(doResult)
	return res.status, res.body, nil
}

func (c *BaseClient) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (doResult, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return doResult{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return doResult{}, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return doResult{}, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return doResult{}, fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	return doResult{status: resp.StatusCode, body: respBody}, nil
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
