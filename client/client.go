package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"canvas-mcp-server/config"
	"canvas-mcp-server/types"
)

//go:generate moq -out client_mock.go . CanvasClient

// CanvasClient defines the interface for Canvas REST API operations
type CanvasClient interface {
	Get(ctx context.Context, path string, params url.Values) (interface{}, error)
	Post(ctx context.Context, path string, params url.Values, body interface{}) (interface{}, error)
	GetAllPages(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error)
	Download(ctx context.Context, fileURL string) ([]byte, error)
}

// Client provides access to the Canvas REST API
type Client struct {
	baseURL        string
	token          string
	pageSize       int
	httpClient     *http.Client
	downloadClient *http.Client
	logger         *slog.Logger
}

// New creates a new Canvas client
func New(cfg *config.Config, logger *slog.Logger) CanvasClient {
	return &Client{
		baseURL:  strings.TrimRight(cfg.CanvasAPIURL, "/"),
		token:    cfg.CanvasAPIToken,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		downloadClient: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
		logger: logger,
	}
}

// Get issues a single GET request and decodes the JSON response
func (c *Client) Get(ctx context.Context, path string, params url.Values) (interface{}, error) {
	result, _, err := c.do(ctx, http.MethodGet, c.requestURL(path, params), nil)
	return result, err
}

// Post issues a POST request with a JSON-encoded body
func (c *Client) Post(ctx context.Context, path string, params url.Values, body interface{}) (interface{}, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	result, _, err := c.do(ctx, http.MethodPost, c.requestURL(path, params), payload)
	return result, err
}

// GetAllPages fetches every page of a paginated listing, following the
// Link header rel="next" URL until the server stops providing one.
// Records are accumulated in server order. A failed page aborts the whole
// fetch; a truncated sequence is never returned as success.
func (c *Client) GetAllPages(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error) {
	if params == nil {
		params = url.Values{}
	}
	if params.Get("per_page") == "" {
		params.Set("per_page", strconv.Itoa(c.pageSize))
	}

	var records []map[string]interface{}
	next := c.requestURL(path, params)

	for page := 1; next != ""; page++ {
		c.logger.Debug("Fetching page", "page", page, "url", next)

		result, header, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("page %d failed after %d records: %w", page, len(records), err)
		}

		items, ok := result.([]interface{})
		if !ok {
			return nil, fmt.Errorf("page %d: expected a JSON array, got %T", page, result)
		}

		for _, item := range items {
			record, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			records = append(records, record)
		}

		next = nextPageURL(header)
	}

	return records, nil
}

// Download fetches a file URL (typically pre-signed by Canvas) and returns
// its raw bytes. Redirects are followed by the underlying client.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &types.HTTPError{StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) requestURL(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, requestURL string, body io.Reader) (interface{}, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, &types.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(bodyBytes)),
		}
	}

	var result interface{}
	if len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, &result); err != nil {
			return nil, nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return result, resp.Header, nil
}

// nextPageURL extracts the rel="next" URL from a Canvas Link header.
// Canvas sends: <https://...?page=2>; rel="next", <https://...>; rel="last"
func nextPageURL(header http.Header) string {
	link := header.Get("Link")
	if link == "" {
		return ""
	}

	for _, part := range strings.Split(link, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, attr := range sections[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return target
			}
		}
	}

	return ""
}
