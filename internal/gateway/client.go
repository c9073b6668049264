// Package gateway is the transport to the upstream REST gateway. Every provider
// adapter goes through FetchJSON; nothing here knows about response shapes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"streamverse/gateway/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.sansekai.my.id/api"
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "streamverse-gateway/1.0"
	maxErrorSnippet  = 256
)

var (
	ErrBadStatus   = errors.New("upstream returned non-success status")
	ErrInvalidBody = errors.New("upstream body is not valid JSON")
)

// TransportError reports a failed upstream call: network failure, non-2xx status
// or an undecodable body. Status is 0 when no response was received.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway %s: HTTP %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the default instrumented client (tests).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	resty   *resty.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	restyClient := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		resty:   restyClient,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchJSON performs one GET against endpoint (relative to the base URL) and
// decodes the body. Numbers are kept as json.Number. There is no retry.
func (c *Client) FetchJSON(ctx context.Context, endpoint string, params url.Values) (any, error) {
	provider := providerLabel(endpoint)
	startedAt := time.Now()

	request := c.resty.R().SetContext(ctx)
	if len(params) > 0 {
		request.SetQueryParamsFromValues(params)
	}
	resp, err := request.Get(endpoint)
	elapsed := time.Since(startedAt)
	metrics.UpstreamRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "error").Inc()
		c.logger.Warn("gateway request failed",
			slog.String("endpoint", endpoint),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "status").Inc()
		c.logger.Warn("gateway non-success status",
			slog.String("endpoint", endpoint),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
		)
		return nil, &TransportError{
			Endpoint: endpoint,
			Status:   status,
			Err:      fmt.Errorf("%w: %s", ErrBadStatus, snippet(resp.Body())),
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body()))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "decode").Inc()
		return nil, &TransportError{
			Endpoint: endpoint,
			Status:   status,
			Err:      fmt.Errorf("%w: %v", ErrInvalidBody, err),
		}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(provider, "ok").Inc()
	c.logger.Debug("gateway request",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	)
	return payload, nil
}

// providerLabel is the first path segment ("/dramabox/latest" -> "dramabox"),
// which keeps metric cardinality bounded by the provider count.
func providerLabel(endpoint string) string {
	trimmed := strings.TrimLeft(endpoint, "/")
	if idx := strings.IndexAny(trimmed, "/?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet]
	}
	return text
}
