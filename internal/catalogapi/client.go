// Package catalogapi sends assembled product and category forms to the
// storefront backend.
package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/shopimg-cli/internal/upload"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog api: status %d: %s", e.StatusCode, e.Message)
}

// Response is the decoded body of a successful call.
type Response struct {
	StatusCode int    `json:"-"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        zerolog.Logger
}

// Client talks to the catalog backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// New validates the base URL and creates a client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: hc,
		log:        opts.Log,
	}, nil
}

// CreateProduct posts a new product form.
func (c *Client) CreateProduct(ctx context.Context, p *upload.Payload) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/products", p)
}

// UpdateProduct replaces an existing product.
func (c *Client) UpdateProduct(ctx context.Context, id string, p *upload.Payload) (*Response, error) {
	return c.send(ctx, http.MethodPut, "/products/"+url.PathEscape(id), p)
}

// CreateCategory posts a new category form.
func (c *Client) CreateCategory(ctx context.Context, p *upload.Payload) (*Response, error) {
	return c.send(ctx, http.MethodPost, "/categories", p)
}

// UpdateCategory replaces an existing category.
func (c *Client) UpdateCategory(ctx context.Context, id string, p *upload.Payload) (*Response, error) {
	return c.send(ctx, http.MethodPut, "/categories/"+url.PathEscape(id), p)
}

func (c *Client) send(ctx context.Context, method, path string, p *upload.Payload) (*Response, error) {
	body, contentType, err := p.Body()
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("files", len(p.Files())).
		Dur("took", time.Since(start)).
		Msg("catalog api call")

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
			if apiErr.Message == "" {
				apiErr.Message = msg.Error
			}
		}
		return nil, apiErr
	}

	out := &Response{StatusCode: resp.StatusCode}
	if len(data) > 0 {
		var raw struct {
			ID      string `json:"id"`
			MongoID string `json:"_id"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &raw); err == nil {
			out.ID = raw.ID
			if out.ID == "" {
				out.ID = raw.MongoID
			}
			out.Message = raw.Message
		}
	}
	return out, nil
}
