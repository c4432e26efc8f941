// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// Configuration constants for the chat API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024

	// pageSize is requested when listing conversations.
	pageSize = 100

	// maxPages bounds the conversation list walk.
	maxPages = 50

	userAgent = "olympus-tui/1.0"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat REST API. It implements backend.Backend and
// backend.Uploader and is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	policy     *files.Policy
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = logging.OrDiscard(l) }
}

// WithPolicy sets the client-side upload policy.
func WithPolicy(p *files.Policy) Option {
	return func(c *Client) {
		if p != nil {
			c.policy = p
		}
	}
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
		policy:     files.DefaultPolicy(),
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// paginated is the list envelope.
type paginated[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// ListConversations walks every page of the conversation list.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var out []model.Conversation
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprint(page))
		q.Set("page_size", fmt.Sprint(pageSize))

		var resp paginated[model.Conversation]
		if err := c.do(ctx, http.MethodGet, "/api/v1/conversations?"+q.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Items...)
		if len(resp.Items) == 0 || page >= resp.TotalPages {
			break
		}
	}
	if out == nil {
		out = []model.Conversation{}
	}
	return out, nil
}

// GetConversation fetches a conversation and its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (model.ConversationWithMessages, error) {
	var conv model.ConversationWithMessages
	err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+url.PathEscape(id), nil, &conv)
	return conv, err
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context, title string) (model.Conversation, error) {
	body := struct {
		Title string `json:"title,omitempty"`
	}{Title: title}
	var conv model.Conversation
	err := c.do(ctx, http.MethodPost, "/api/v1/conversations", body, &conv)
	return conv, err
}

// DeleteConversation deletes a conversation. A 404 unwraps to backend.ErrNotFound.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/conversations/"+url.PathEscape(id), nil, nil)
}

// SendMessage posts one user message.
func (c *Client) SendMessage(ctx context.Context, req backend.SendRequest) (backend.SendResponse, error) {
	var resp backend.SendResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/chat/send", req, &resp)
	return resp, err
}

// =============================================================================
// REQUESTS
// =============================================================================

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

// send executes req with auth headers and decodes the response.
func (c *Client) send(req *http.Request, out any) error {
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	// Never log headers or bodies; they carry the token and user content.
	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("api request")

	limited := io.LimitReader(resp.Body, MaxResponseSize)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, limited)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, limited)
		return nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", userAgent)
}

// decodeError builds an APIError from a failed response.
func decodeError(status int, body io.Reader) error {
	apiErr := &APIError{Status: status}
	data, _ := io.ReadAll(body)
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Detail != "" {
		apiErr.Detail = eb.Detail
		apiErr.Code = eb.Code
	} else if text := strings.TrimSpace(string(data)); text != "" && len(text) < 200 {
		apiErr.Detail = text
	}
	return apiErr
}

var (
	_ backend.Backend  = (*Client)(nil)
	_ backend.Uploader = (*Client)(nil)
)
