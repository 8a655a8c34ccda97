package api

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
	"go.uber.org/zap"

	"github.com/rmharte/rxq/internal/resilience"
)

const (
	// DefaultBaseURL is the production drug-search endpoint.
	DefaultBaseURL = "https://drugsearch-api.rmharte.dev"

	userAgent      = "rxq/0.3 (github.com/rmharte/rxq)"
	defaultTimeout = 15 * time.Second
)

// Client is an HTTP client for the drug-search service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	guard      *resilience.Guard
	log        *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient swaps the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithGuard routes every call through the given circuit-breaker guard.
func WithGuard(g *resilience.Guard) Option {
	return func(c *Client) { c.guard = g }
}

// WithLogger attaches a structured logger. Requests log at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a drug-search client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        zap.NewNop(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a drug search. A response that parses but carries
// success=false is returned as a *Error so callers can surface the
// backend's own message.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.call(ctx, "search", http.MethodPost, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("searching drugs: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("searching drugs: %w", &Error{
			StatusCode: http.StatusOK,
			Message:    firstNonEmpty(resp.Error, "search failed"),
		})
	}
	return &resp, nil
}

// FetchDrugDetail fetches the full record for one NDC. The NDC is
// validated locally; malformed input never reaches the wire.
func (c *Client) FetchDrugDetail(ctx context.Context, ndc string) (*DrugDetailResponse, error) {
	normalized, err := NormalizeNDC(ndc)
	if err != nil {
		return nil, err
	}

	var resp DrugDetailResponse
	if err := c.call(ctx, "detail", http.MethodGet, "/drugs/"+normalized, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching drug detail: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetching drug detail: %w", &Error{
			StatusCode: http.StatusOK,
			Message:    firstNonEmpty(resp.Error, "drug lookup failed"),
		})
	}
	return &resp, nil
}

// FetchAlternatives fetches same-GCN substitution options for one NDC.
func (c *Client) FetchAlternatives(ctx context.Context, ndc string) (*AlternativesResponse, error) {
	normalized, err := NormalizeNDC(ndc)
	if err != nil {
		return nil, err
	}

	var resp AlternativesResponse
	if err := c.call(ctx, "alternatives", http.MethodGet, "/drugs/"+normalized+"/alternatives", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching alternatives: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetching alternatives: %w", &Error{
			StatusCode: http.StatusOK,
			Message:    firstNonEmpty(resp.Error, "alternatives lookup failed"),
		})
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, operation, method, path string, body, out any) error {
	if c.guard == nil {
		return c.do(ctx, method, path, body, out)
	}
	return c.guard.Do(operation, func() error {
		return c.do(ctx, method, path, body, out)
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: trailing JSON content")
	}
	return nil
}

// errorMessage digs the backend's error text out of a failure body. The
// service sends {success:false, error:…} on every non-2xx, but a proxy in
// front of it may send anything, so absence is tolerated.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return firstNonEmpty(body.Error, body.Message)
}

// IsServiceFailure reports whether err indicates the service itself is
// unhealthy. Cancellations and 4xx responses are the caller's problem and
// must not trip the circuit breaker.
func IsServiceFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// NormalizeNDC strips dashes from an NDC and validates that the result is
// the 11-digit billing format the service keys on.
func NormalizeNDC(raw string) (string, error) {
	ndc := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	if len(ndc) != 11 {
		return "", fmt.Errorf("invalid NDC %q: want 11 digits, have %d", raw, len(ndc))
	}
	for _, r := range ndc {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid NDC %q: non-digit character %q", raw, r)
		}
	}
	return ndc, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
