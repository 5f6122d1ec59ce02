package shopify

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	tracerName        = "github.com/ecommerce-copilot/api/internal/shopify"
	maxErrorBodySize  = 4 * 1024
)

// ErrNotConfigured indicates the client was built without a store domain or
// access token; every call on such a client fails with this error.
var ErrNotConfigured = errors.New("shopify: client not configured")

// APIError describes a failed admin API request. Status is zero for transport
// failures that never produced a response.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("shopify: %s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("shopify: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying transport error when present.
func (e *APIError) Unwrap() error { return e.Err }

// ResolveStoreDomain produces the canonical bare store domain from either a
// configured domain or a full store URL. The domain value wins when both are
// set; scheme prefixes and trailing slashes are stripped from either source.
func ResolveStoreDomain(domain, storeURL string) string {
	for _, candidate := range []string{domain, storeURL} {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "https://")
		trimmed = strings.TrimPrefix(trimmed, "http://")
		trimmed = strings.TrimSuffix(trimmed, "/")
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// ClientConfig configures the admin API client.
type ClientConfig struct {
	StoreDomain string
	StoreURL    string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Tracer      trace.Tracer
}

// Client is a thin typed client for the Shopify admin REST API. It holds the
// process-wide base URL and credential fixed at startup; it is safe for
// concurrent use and never mutated after construction.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	tracer  trace.Tracer
}

// NewClient builds an admin API client bound to the canonical store domain.
// A missing domain or credential is reported as an error so the caller can log
// it and continue with a client whose requests fail fast.
func NewClient(cfg ClientConfig) (*Client, error) {
	domain := ResolveStoreDomain(cfg.StoreDomain, cfg.StoreURL)
	token := strings.TrimSpace(cfg.AccessToken)
	version := strings.TrimSpace(cfg.APIVersion)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	client := &Client{
		token:  token,
		http:   httpClient,
		tracer: tracer,
	}

	if domain == "" {
		return client, fmt.Errorf("%w: store domain missing", ErrNotConfigured)
	}
	if token == "" {
		return client, fmt.Errorf("%w: admin access token missing", ErrNotConfigured)
	}
	if version == "" {
		return client, fmt.Errorf("%w: api version missing", ErrNotConfigured)
	}

	client.baseURL = fmt.Sprintf("https://%s/admin/api/%s", domain, version)
	return client, nil
}

// NewClientForBaseURL builds a client against an explicit base URL. Intended
// for tests running against a local HTTP server.
func NewClientForBaseURL(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
		tracer:  otel.Tracer(tracerName),
	}
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body any, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	if c == nil || c.baseURL == "" || c.token == "" {
		return &APIError{Op: op, Err: ErrNotConfigured}
	}

	ctx, span := c.tracer.Start(ctx, "shopify."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.SetStatus(codes.Error, "encode request")
			return &APIError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.SetStatus(codes.Error, "build request")
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "transport")
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		span.SetStatus(codes.Error, resp.Status)
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.SetStatus(codes.Error, "decode response")
		return &APIError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
