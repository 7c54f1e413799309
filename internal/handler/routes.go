package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"copetran-proxy-go/internal/config"
	"copetran-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, tracking *TrackingHandler, health *HealthHandler) {
	e.GET("/health", health.Health)

	e.POST("/api/rastrear-guia", tracking.Post)
	e.GET("/api/rastrear-guia/:numeroGuia", tracking.Get)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
