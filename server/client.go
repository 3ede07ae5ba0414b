package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/teilomillet/georgianchat/llm"
)

// Client calls a running Server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateResponse invokes the generate_response function remotely.
func (c *Client) GenerateResponse(ctx context.Context, req llm.GenerateRequest) (*llm.GenerationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	var res llm.GenerationResult
	if err := c.call(ctx, http.MethodPost, "/generate_response", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// HealthCheck invokes the health_check function remotely.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var res HealthResponse
	if err := c.call(ctx, http.MethodGet, "/health_check", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) call(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var httpErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &httpErr) == nil && httpErr.Message != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, httpErr.Message)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
