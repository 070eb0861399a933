package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaidenz/storefront-gateway/pkg/config"
	pkgerrors "github.com/kaidenz/storefront-gateway/pkg/errors"
	"github.com/kaidenz/storefront-gateway/pkg/metrics"
)

const responseBodyReadLimit int64 = 1 << 20

// Client wraps the Java storefront backend every proxy operation targets.
// One outbound request per operation; cookies in, Set-Cookie out.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics attaches upstream call metrics.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the backend client from config.
func NewClient(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upstream base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// callResult is the raw outcome of one backend round trip before
// per-operation normalization.
type callResult struct {
	status  int
	body    []byte
	renewed Renewed
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, payload any, creds Credentials) (*callResult, error) {
	if c == nil || c.httpClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "upstream client not configured")
	}

	endpoint := c.buildURL(path)
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal upstream request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	creds.apply(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(op, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(op)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("execute %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		c.metrics.IncFailure(op)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("read %s response", op))
	}

	result := &callResult{
		status:  resp.StatusCode,
		body:    raw,
		renewed: Renewed(resp.Cookies()),
	}

	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		c.metrics.IncFailure(op)
		return result, err
	}

	c.metrics.IncSuccess(op)
	return result, nil
}

// classifyStatus maps non-2xx backend statuses onto the gateway's error
// taxonomy. The body, when readable, only informs the wrapped cause; public
// messages stay generic.
func classifyStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	cause := fmt.Errorf("status %d: %s", status, bodySnippet(body))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "session rejected by backend")
	case status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, "resource not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, cause, "backend request failed")
	}
}

// decodeJSON normalizes a backend body into dest. A non-JSON body (an HTML
// error page, a plain-text servlet stack trace) becomes a typed
// UPSTREAM_MALFORMED error instead of a raw parse failure.
func decodeJSON(res *callResult, dest any) error {
	if res == nil {
		return pkgerrors.New(pkgerrors.CodeUpstreamMalformed, "empty upstream response")
	}
	if err := json.Unmarshal(res.body, dest); err != nil {
		cause := fmt.Errorf("%w; body: %s", err, bodySnippet(res.body))
		return pkgerrors.Wrap(pkgerrors.CodeUpstreamMalformed, cause, "decode upstream response")
	}
	return nil
}

func bodySnippet(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		text = text[:limit]
	}
	if text == "" {
		return "<empty>"
	}
	return text
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

// Ping checks backend reachability for the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", http.MethodGet, "/products", nil, nil, Credentials{})
	return err
}
