// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil sends provider requests. Calls are never retried: a
// failed call is reported once and rendered for the user.
package httputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// MaxResponseBytes bounds how much of a response body is read.
var MaxResponseBytes int64 = 16 << 20

// maxErrorBody bounds the body text kept on a ProviderRequestFailed.
const maxErrorBody = 2048

// Client posts JSON bodies to provider endpoints.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Logger    *zap.Logger
}

// New returns a Client configured from cfg.
func New(cfg types.HTTPConfig, logger *zap.Logger) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Logger:    logging.OrNop(logger).Named("http"),
	}
}

// PostJSON sends body to url and returns the response body of a 200 reply.
// Any other outcome is a *types.ProviderRequestFailed: Status is 0 when no
// response arrived, in which case Err carries the cause (including
// context cancellation).
func (c *Client) PostJSON(ctx context.Context, provider types.ProviderID, url string, headers map[string]string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &types.ProviderRequestFailed{Provider: provider, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	log := logging.OrNop(c.Logger)

	resp, err := hc.Do(req)
	if err != nil {
		log.Warn("provider request failed", zap.String("provider", string(provider)), zap.Error(err))
		return nil, &types.ProviderRequestFailed{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, &types.ProviderRequestFailed{Provider: provider, Status: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("provider returned error status",
			zap.String("provider", string(provider)),
			zap.Int("status", resp.StatusCode))
		return nil, &types.ProviderRequestFailed{
			Provider: provider,
			Status:   resp.StatusCode,
			Body:     truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
	}

	log.Debug("provider response",
		zap.String("provider", string(provider)),
		zap.Int("bytes", len(data)))
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
