// Package source implements the candidate-fetch collaborator against
// platform REST APIs.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/model"
)

// PlatformConfig describes one order platform endpoint.
type PlatformConfig struct {
	BaseURL string  `json:"base_url"`
	Token   string  `json:"token"`
	Weight  float64 `json:"weight"`
}

// HTTPSource fetches candidate orders over HTTP. Network and server-side
// failures are classified as transient so the scheduler may retry the cycle
// later; a platform missing from the configuration is not.
type HTTPSource struct {
	platforms map[string]PlatformConfig
	client    *http.Client
}

// NewHTTPSource creates a source for the configured platforms.
func NewHTTPSource(platforms map[string]PlatformConfig, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		platforms: platforms,
		client:    &http.Client{Timeout: timeout},
	}
}

type ordersResponse struct {
	Orders []model.Order `json:"orders"`
}

// Fetch returns the platform's current candidate orders, tagged with the
// platform name and configured weight.
func (s *HTTPSource) Fetch(ctx context.Context, platform string) ([]model.Order, error) {
	cfg, ok := s.platforms[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", platform, err, dispatch.ErrTransient)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("fetch %s: status %d: %w", platform, resp.StatusCode, dispatch.ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", platform, resp.StatusCode)
	}
	var body ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", platform, err)
	}
	for i := range body.Orders {
		body.Orders[i].Platform = platform
		if body.Orders[i].PlatformWeight <= 0 {
			body.Orders[i].PlatformWeight = cfg.Weight
		}
	}
	return body.Orders, nil
}
