package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/model"
)

// HTTPAcceptClient commits an order through the platform's accept endpoint.
type HTTPAcceptClient struct {
	platforms map[string]PlatformConfig
	client    *http.Client
}

// NewHTTPAcceptClient creates an acceptance client for the configured platforms.
func NewHTTPAcceptClient(platforms map[string]PlatformConfig, timeout time.Duration) *HTTPAcceptClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPAcceptClient{
		platforms: platforms,
		client:    &http.Client{Timeout: timeout},
	}
}

type acceptPayload struct {
	OrderID  string `json:"order_id"`
	Platform string `json:"platform"`
}

// Accept posts the acceptance. Network errors and 5xx responses are
// transient; any other non-200 response is terminal for the order.
func (c *HTTPAcceptClient) Accept(ctx context.Context, order model.ScoredOrder) error {
	cfg, ok := c.platforms[order.Platform]
	if !ok {
		return fmt.Errorf("unknown platform %q", order.Platform)
	}
	body, err := json.Marshal(acceptPayload{OrderID: order.ID, Platform: order.Platform})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/accept", cfg.BaseURL, order.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("accept %s: %v: %w", order.ID, err, dispatch.ErrTransient)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("accept %s: status %d: %w", order.ID, resp.StatusCode, dispatch.ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("accept %s: unexpected status %d", order.ID, resp.StatusCode)
	}
	return nil
}
