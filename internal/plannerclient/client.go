// Package plannerclient talks to the planner HTTP API and implements
// planner.Authority.
package plannerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"planner/internal/planner"
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner api %d: %s", e.Status, e.Message)
}

// IsTransport reports whether err means the call never completed.
func IsTransport(err error) bool {
	return errors.Is(err, planner.ErrTransport)
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

var _ planner.Authority = (*Client)(nil)

type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", planner.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			msg := eb.Error
			if msg == "" {
				msg = eb.Message
			}
			if msg != "" {
				return &APIError{Status: resp.StatusCode, Message: msg}
			}
		}
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", planner.ErrTransport, method, path, err)
	}
	return nil
}

// FetchBoard calls GET /planner/ideas.
func (c *Client) FetchBoard(ctx context.Context) (planner.RemoteBoard, error) {
	var out planner.RemoteBoard
	if err := c.do(ctx, http.MethodGet, "/planner/ideas", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = planner.RemoteBoard{}
	}
	return out, nil
}

// MoveItems calls POST /planner/ideas/move with the full order.
func (c *Client) MoveItems(ctx context.Context, snap planner.OrderSnapshot) (planner.MoveResult, error) {
	var out planner.MoveResult
	err := c.do(ctx, http.MethodPost, "/planner/ideas/move", snap, &out)
	return out, err
}

// CreateItem calls POST /planner/ideas.
func (c *Client) CreateItem(ctx context.Context, req planner.NewItem) (planner.Item, error) {
	var out planner.Item
	err := c.do(ctx, http.MethodPost, "/planner/ideas", req, &out)
	return out, err
}

// UpdateItem calls PUT /planner/ideas/{id}.
func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, upd planner.ItemUpdate) (planner.Item, error) {
	var out planner.Item
	err := c.do(ctx, http.MethodPut, "/planner/ideas/"+id.String(), upd, &out)
	return out, err
}

// DeleteItem calls DELETE /planner/ideas/{id}.
func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/planner/ideas/"+id.String(), nil, nil)
}
