// Package service implements the tracking lookup against the carrier portal.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"copetran-proxy-go/internal/client"
	"copetran-proxy-go/internal/metrics"
	"copetran-proxy-go/internal/model"
)

// ErrMissingTrackingID is returned when the request carries no numeroGuia.
var ErrMissingTrackingID = errors.New("tracking number is required")

// TrackingService performs tracking lookups. It keeps no state between calls;
// every lookup opens its own portal session.
type TrackingService struct {
	client   *client.CopetranClient
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewTrackingService creates a TrackingService. The metrics parameter is
// optional; pass nil to disable lookup metrics.
func NewTrackingService(c *client.CopetranClient, logger *slog.Logger, m *metrics.Metrics) *TrackingService {
	return &TrackingService{
		client:   c,
		validate: validator.New(),
		logger:   logger.With("component", "tracking_service"),
		metrics:  m,
	}
}

// Track looks up req.NumeroGuia on the portal. The session page is fetched
// first and its cookies are replayed on the query; the query response is then
// classified. A not-found page is a successful lookup with Found=false.
func (s *TrackingService) Track(ctx context.Context, req model.TrackingRequest) (*model.Result, error) {
	result, err := s.track(ctx, req)
	s.record(result, err)
	return result, err
}

func (s *TrackingService) track(ctx context.Context, req model.TrackingRequest) (*model.Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingTrackingID, err)
	}
	id := req.ID()

	s.logger.Info("querying tracking number", "numero_guia", id)

	session, err := s.client.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.logger.Debug("session established", "numero_guia", id, "has_cookies", session.Cookie != "")

	html, err := s.client.Query(ctx, session, model.QueryForm{TrackingID: id})
	if err != nil {
		return nil, fmt.Errorf("query tracking number: %w", err)
	}
	s.logger.Debug("portal response received", "numero_guia", id, "html_length", len(html))

	result := &model.Result{
		TrackingID: id,
		Found:      !hasNoResults(html),
		HTML:       html,
	}
	if !result.Found {
		s.logger.Info("portal returned a no-results page", "numero_guia", id)
	}
	return result, nil
}

func (s *TrackingService) record(result *model.Result, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Lookups.WithLabelValues(Outcome(result, err)).Inc()
}

// Outcome returns the metrics label for a lookup result.
func Outcome(result *model.Result, err error) string {
	var se *client.StatusError
	switch {
	case err == nil && result != nil && result.Found:
		return metrics.OutcomeFound
	case err == nil:
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrMissingTrackingID):
		return metrics.OutcomeInvalid
	case errors.Is(err, client.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.As(err, &se):
		return metrics.OutcomeUpstreamError
	default:
		return metrics.OutcomeError
	}
}
