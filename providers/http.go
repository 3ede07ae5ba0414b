package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teilomillet/georgianchat/utils"
)

// StatusError is returned when a backend answers with a non-200 status.
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// httpClient is the JSON transport shared by the HTTP backends.
type httpClient struct {
	backend  string
	endpoint string
	headers  map[string]string
	client   *http.Client
	logger   utils.Logger
}

func newHTTPClient(backend, endpoint string, headers map[string]string, client *http.Client, logger utils.Logger) *httpClient {
	if client == nil {
		client = &http.Client{}
	}
	if headers == nil {
		headers = make(map[string]string)
	}
	return &httpClient{
		backend:  backend,
		endpoint: strings.TrimRight(endpoint, "/"),
		headers:  headers,
		client:   client,
		logger:   logger,
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		c.logger.Debug("Request body", "backend", c.backend, "path", path, "body", string(data))
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Backend error", "backend", c.backend, "path", path, "status", resp.StatusCode, "body", string(data))
		return nil, &StatusError{Backend: c.backend, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func (c *httpClient) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}
