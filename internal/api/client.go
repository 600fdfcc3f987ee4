// internal/api/client.go
//
// HTTP client for the external movie REST API.
//
// Context
// -------
// Client is the single point of HTTP egress.  It targets one configurable
// base URL and, on every request, asks its TokenSource for the current
// browser's bearer token; when one is present it is sent as
// `Authorization: Bearer <token>`.
//
// The client does not retry, cache, or deduplicate concurrent identical
// calls.  Transport failures are returned wrapped with %w so callers reach
// the original error.  Non-2xx responses become *Error.
//
// Every call is timed and counted under a low-cardinality endpoint label
// derived from the path (numeric ids and query strings dropped).

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/movienest/internal/metrics"
)

// DefaultBaseURL is used when New receives an empty base URL.
const DefaultBaseURL = "http://localhost:4000"

// TokenSource yields the bearer token for the request in ctx.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying *http.Client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New builds a Client.  tokens may be nil for anonymous use.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the normalised base URL (no trailing slash).
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a fully read 2xx reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get performs GET path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// PostJSON performs POST path with v encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

// PostMultipart performs POST path with a multipart body.
func (c *Client) PostMultipart(ctx context.Context, path string, body *Multipart) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body.Reader(), body.ContentType())
}

// PutMultipart performs PUT path with a multipart body.
func (c *Client) PutMultipart(ctx context.Context, path string, body *Multipart) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body.Reader(), body.ContentType())
}

// do sends one request and reads the whole reply.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	endpoint := endpointLabel(method, path)
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, raw)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// endpointLabel maps "/movies/update-movie/12?x=1" to "PUT /movies/update-movie".
func endpointLabel(method, path string) string {
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	kept := segs[:0]
	for _, s := range segs {
		if _, err := strconv.Atoi(s); err == nil {
			continue
		}
		kept = append(kept, s)
	}
	return method + " /" + strings.Join(kept, "/")
}
