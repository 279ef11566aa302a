// Package client talks to the todo API and keeps a local, optimistically updated view of the list.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/astromechza/ordered-todos/pkg/api"
	"github.com/astromechza/ordered-todos/pkg/todo"
)

const DefaultTimeout = 5 * time.Second

// Client is a thin JSON client for the todo API. Error responses are mapped back onto the todo
// sentinel errors so callers can use errors.Is on both sides of the wire.
type Client struct {
	baseUrl *url.URL
	http    *http.Client
}

func New(baseUrl string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseUrl)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseUrl: u, http: httpClient}, nil
}

func (c *Client) List(ctx context.Context) ([]todo.Item, error) {
	var out []todo.Item
	if err := c.do(ctx, http.MethodGet, "api/todos", nil, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (todo.Item, error) {
	var out todo.Item
	if err := c.do(ctx, http.MethodGet, "api/todos/"+url.PathEscape(id), nil, nil, http.StatusOK, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, title string, order *int64) (todo.Item, error) {
	var out todo.Item
	body := api.CreateRequest{Title: title, Order: order}
	if err := c.do(ctx, http.MethodPost, "api/todos", body, nil, http.StatusCreated, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

// Update sends patch conditioned on version.
func (c *Client) Update(ctx context.Context, id, version string, patch todo.Patch) (todo.Item, error) {
	var out todo.Item
	headers := http.Header{"If-Match": []string{`"` + version + `"`}}
	if err := c.do(ctx, http.MethodPut, "api/todos/"+url.PathEscape(id), api.UpdateRequest{Patch: patch}, headers, http.StatusOK, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

// Delete removes the item; a non-empty version makes the delete conditional.
func (c *Client) Delete(ctx context.Context, id, version string) error {
	var headers http.Header
	if version != "" {
		headers = http.Header{"If-Match": []string{`"` + version + `"`}}
	}
	return c.do(ctx, http.MethodDelete, "api/todos/"+url.PathEscape(id), nil, headers, http.StatusNoContent, nil)
}

func (c *Client) Reorder(ctx context.Context, entries []todo.ReorderEntry) ([]todo.ReorderResult, error) {
	var out api.ReorderResponse
	if err := c.do(ctx, http.MethodPost, "api/todos/reorder", api.ReorderRequest{Items: entries}, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "health", nil, nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header, want int, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var body api.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", todo.ErrNotFound, msg)
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", todo.ErrVersionMismatch, msg)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusPreconditionRequired:
		return fmt.Errorf("%w: %s", todo.ErrValidation, msg)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", todo.ErrStoreUnavailable, msg)
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg)
	}
}
