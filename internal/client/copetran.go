// Package client provides the upstream HTTP client for the Copetran portal.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"copetran-proxy-go/internal/config"
	"copetran-proxy-go/internal/metrics"
	"copetran-proxy-go/internal/model"
)

// ErrTimeout is returned when a portal call exceeds its bound.
var ErrTimeout = errors.New("upstream request timed out")

// Browser-like identification; the portal rejects obvious bots.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "es-CO,es;q=0.9,en;q=0.8"
)

// StatusError reports a non-2xx response from the portal.
type StatusError struct {
	Step       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: unexpected status %d", e.Step, e.StatusCode)
}

// CopetranClient performs the two-step session/query exchange with the portal.
// It is safe for concurrent use; no session state is kept between calls.
type CopetranClient struct {
	httpClient     *http.Client
	logger         *slog.Logger
	metrics        *metrics.Metrics
	sessionURL     string
	queryURL       string
	sessionTimeout time.Duration
	queryTimeout   time.Duration
}

// NewCopetranClient creates a CopetranClient with connection pooling.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewCopetranClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *CopetranClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	// Call bounds are applied per request through the context so that the
	// body read is covered as well.
	return &CopetranClient{
		httpClient:     &http.Client{Transport: transport},
		logger:         logger.With("component", "copetran_client"),
		metrics:        m,
		sessionURL:     cfg.Upstream.SessionURL,
		queryURL:       cfg.Upstream.QueryURL,
		sessionTimeout: cfg.Upstream.SessionTimeout(),
		queryTimeout:   cfg.Upstream.QueryTimeout(),
	}
}

// OpenSession fetches the tracking form page and returns its cookies.
func (c *CopetranClient) OpenSession(ctx context.Context) (model.SessionContext, error) {
	ctx, cancel := withTimeout(ctx, c.sessionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, http.NoBody)
	if err != nil {
		return model.SessionContext{}, fmt.Errorf("build session request: %w", err)
	}
	setBrowserHeaders(req.Header)

	resp, err := c.do(ctx, metrics.StepSession, req)
	if err != nil {
		return model.SessionContext{}, err
	}
	// The page itself is not needed; drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return model.NewSessionContext(resp.Header.Values("Set-Cookie")), nil
}

// Query submits the tracking form within the given session and returns the
// raw HTML body. The query timeout covers reading the whole body.
func (c *CopetranClient) Query(ctx context.Context, session model.SessionContext, form model.QueryForm) (string, error) {
	ctx, cancel := withTimeout(ctx, c.queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build query request: %w", err)
	}
	setBrowserHeaders(req.Header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.sessionURL)
	if session.Cookie != "" {
		req.Header.Set("Cookie", session.Cookie)
	}

	resp, err := c.do(ctx, metrics.StepQuery, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, metrics.StepQuery, fmt.Errorf("read body: %w", err))
	}
	return string(body), nil
}

// do executes req and rejects non-2xx responses. On success the caller owns
// the response body.
func (c *CopetranClient) do(ctx context.Context, step string, req *http.Request) (*http.Response, error) {
	c.logger.Debug("upstream request",
		"step", step,
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // closed by caller or below on status errors
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(step).Observe(duration)
	}

	if err != nil {
		return nil, classify(ctx, step, err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(step, strconv.Itoa(resp.StatusCode)).Inc()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{Step: step, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// classify wraps err with ErrTimeout when the call ran out of time.
func classify(ctx context.Context, step string, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("upstream %s: %w: %w", step, ErrTimeout, err)
	}
	return fmt.Errorf("upstream %s: %w", step, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func setBrowserHeaders(h http.Header) {
	h.Set("User-Agent", userAgent)
	h.Set("Accept", acceptHTML)
	h.Set("Accept-Language", acceptLanguage)
}
