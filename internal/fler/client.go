// Package fler provides an authenticated client for the Fler seller REST API.
//
// Every call is signed with the API1 scheme (see Sign). Responses are decoded
// as JSON and application errors reported in the body are surfaced as
// *APIError values.
package fler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/fler-tools/internal/metrics"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

const (
	// DefaultServer is the production Fler endpoint.
	DefaultServer  = "https://www.fler.cz"
	DefaultTimeout = 5 * time.Second

	apiPrefix = "/api/rest"
)

var tracer = otel.Tracer("github.com/donaldgifford/fler-tools/internal/fler")

// API defines the Fler operations used by the topping runner and the
// statistics exporter.
type API interface {
	AccountInfo(ctx context.Context) (*domain.Account, error)
	Products(ctx context.Context, q ProductQuery) ([]domain.Listing, error)
	Top(ctx context.Context, id string) (json.RawMessage, error)
}

// Client implements API over HTTP.
type Client struct {
	creds   Credentials
	server  *url.URL
	client  *http.Client
	budget  *CallBudget
	log     *slog.Logger
	nowFunc func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-call timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = newHTTPClient(d)
		}
	}
}

// WithCallBudget paces every call through b before it is sent.
func WithCallBudget(b *CallBudget) Option {
	return func(c *Client) {
		c.budget = b
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithNowFunc overrides the clock used for request timestamps.
func WithNowFunc(f func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// NewClient creates a client for server (DefaultServer when empty).
func NewClient(creds Credentials, server string, opts ...Option) (*Client, error) {
	if server == "" {
		server = DefaultServer
	}
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server URL %q must include scheme and host", server)
	}

	c := &Client{
		creds:   creds,
		server:  u,
		client:  newHTTPClient(DefaultTimeout),
		log:     slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Budget returns the configured call budget, or nil.
func (c *Client) Budget() *CallBudget {
	return c.budget
}

// Call performs a signed GET of /api/rest{path} with the given query
// parameters and decodes the JSON body into dst (which may be nil).
func (c *Client) Call(ctx context.Context, path string, params url.Values, dst any) error {
	ctx, span := tracer.Start(ctx, "fler "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("fler.endpoint", path)),
	)
	defer span.End()

	start := time.Now()
	err := c.call(ctx, path, params, dst)
	outcome := outcomeLabel(err)

	metrics.APICallDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	metrics.APICallsTotal.WithLabelValues(path, outcome).Inc()

	span.SetAttributes(attribute.String("fler.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}

	return err
}

func (c *Client) call(ctx context.Context, path string, params url.Values, dst any) error {
	if c.budget != nil {
		if err := c.budget.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.APIDailyLimitHits.Inc()
			}
			return fmt.Errorf("call budget: %w", err)
		}
		metrics.APIDailyUsage.Set(float64(c.budget.Snapshot().DailyUsed))
	}

	u := c.server.ResolveReference(&url.URL{Path: apiPrefix + path})
	u.RawQuery = params.Encode()

	signed := NewSignedRequest(http.MethodGet, c.nowFunc().Unix(), u.EscapedPath(), c.creds.PrivateKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set(AuthHeader, signed.Header(c.creds.PublicKey))
	req.Header.Set("Accept", "application/json")

	c.log.Debug("fler request", "method", http.MethodGet, "url", u.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodGet, URL: redact(u), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: http.MethodGet, URL: redact(u), Err: fmt.Errorf("reading response body: %w", err)}
	}

	if !json.Valid(body) {
		return &ProtocolError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := checkError(resp.StatusCode, body); err != nil {
		return err
	}

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &ProtocolError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	return nil
}

func redact(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}

func outcomeLabel(err error) string {
	var (
		apiErr       *APIError
		protoErr     *ProtocolError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		if apiErr.QuotaExhausted() {
			return "quota_exhausted"
		}
		return "api_error"
	case errors.As(err, &protoErr):
		return "protocol_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.Is(err, ErrDailyLimitReached):
		return "budget_exhausted"
	default:
		return "other_error"
	}
}
