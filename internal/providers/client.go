// Package providers contains the concrete adapters behind the ports:
// the REST access and activity providers, the SMTP notifier and the
// webhook alert channel. Every outbound call carries a timeout and a
// small in-call retry budget; failures come back classified as a
// domain.ProviderError so callers can tell transient from permanent.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultAttempts = 3
	retryDelay      = 5 * time.Second
)

// restClient wraps an http.Client with retries against one base URL.
// 5xx responses and transport errors are retried; 4xx responses are
// returned immediately since the request will not get better.
type restClient struct {
	name     string
	base     *url.URL
	http     *http.Client
	attempts int
	delay    time.Duration
	logger   zerolog.Logger
}

func newRESTClient(name, baseURL string, logger zerolog.Logger) (*restClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s base url: %w", name, err)
	}
	return &restClient{
		name:     name,
		base:     u,
		http:     &http.Client{Timeout: defaultTimeout},
		attempts: defaultAttempts,
		delay:    retryDelay,
		logger:   logger,
	}, nil
}

// getJSON performs a GET with retries and decodes the body into out.
func (c *restClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, out)
}

func (c *restClient) doJSON(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn().
				Str("provider", c.name).
				Str("path", path).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying provider call")
			select {
			case <-ctx.Done():
				return transientErr(c.name, path, ctx.Err())
			case <-time.After(c.delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return permanentErr(c.name, path, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			drain(resp)
			return notFoundErr(c.name, path)
		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			drain(resp)
			return permanentErr(c.name, path, fmt.Errorf("status %d", resp.StatusCode))
		}

		if out == nil {
			drain(resp)
			return nil
		}
		err = json.NewDecoder(resp.Body).Decode(out)
		drain(resp)
		if err != nil {
			return permanentErr(c.name, path, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}
	return transientErr(c.name, path, lastErr)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
