// Package api implements the resilient fetch client for the upstream
// reporting API. All operations degrade on failure: transport errors,
// bad statuses and parse failures are logged and turned into empty or
// partial results, never propagated raw to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apet97/worklens/internal/auth"
	"github.com/apet97/worklens/internal/model"
)

const (
	detailedPageSize = 200
	listPageSize     = 500

	defaultTimeout    = 30 * time.Second
	defaultRetryAfter = 1 * time.Second
)

// Client issues requests against the workspace's backend and reports
// endpoints. It owns no persistent state beyond the shared ApiStatus.
type Client struct {
	httpClient *http.Client
	auth       auth.Provider
	status     *model.ApiStatus
	log        *logrus.Logger
}

// New creates a client. status receives fetch-layer counters and may be
// shared with readers.
func New(provider auth.Provider, status *model.ApiStatus, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		auth:       provider,
		status:     status,
		log:        log,
	}
}

// SetTimeout adjusts the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Status exposes the shared counters for presentation.
func (c *Client) Status() model.ApiStatusSnapshot {
	return c.status.Snapshot()
}

// do issues one request and returns status, headers and body. A non-nil
// error means the request never produced an HTTP response.
func (c *Client) do(ctx context.Context, method, url string, body any, tok auth.Token) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Addon-Token", tok.Raw)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return resp.StatusCode, resp.Header, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, resp.Header, data, nil
}

// retryDelay reads a Retry-After header given in seconds.
func retryDelay(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// sleep waits for d unless the context is cancelled first. It reports
// whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) token(ctx context.Context) (auth.Token, bool) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		c.status.RecordError(err)
		c.log.WithError(err).Warn("no addon token available")
		return auth.Token{}, false
	}
	return tok, true
}
