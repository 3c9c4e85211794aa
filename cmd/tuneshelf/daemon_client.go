package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tuneshelf/internal/api"
	"tuneshelf/internal/config"
)

var errDaemonUnreachable = errors.New("daemon not reachable")

// daemonClient reads live state from a running daemon's HTTP API.
type daemonClient struct {
	baseURL string
	http    *http.Client
}

func newDaemonClient(cfg *config.Config) (*daemonClient, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, fmt.Errorf("%w: api_bind is not configured", errDaemonUnreachable)
	}
	return &daemonClient{
		baseURL: "http://" + bind,
		http:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (c *daemonClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *daemonClient) post(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodPost, path, out)
}

func (c *daemonClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", errDaemonUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		var body api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return fmt.Errorf("daemon: %s", body.Error)
		}
		return fmt.Errorf("daemon: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
