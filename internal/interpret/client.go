package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OCAP2/navalsim/internal/action"
)

// Client is an Interpreter backed by an HTTP service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an HTTP interpreter client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ Interpreter = (*Client)(nil)

type response struct {
	Kind   action.Kind     `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Healthcheck checks if the interpretation service is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Interpret posts the request to <base>/interpret and decodes the action.
func (c *Client) Interpret(ctx context.Context, r Request) (action.Action, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return action.Action{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interpret", bytes.NewReader(body))
	if err != nil {
		return action.Action{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return action.Action{}, fmt.Errorf("interpret request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return action.Action{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return action.Action{}, fmt.Errorf("interpret returned status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return action.Action{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return action.Action{}, fmt.Errorf("interpreter: %s", out.Error)
	}
	kind, err := action.ParseKind(string(out.Kind))
	if err != nil {
		return action.Action{}, err
	}
	return action.Action{Kind: kind, Params: out.Params}, nil
}
