package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"product-slug-server/internal/config"
	"product-slug-server/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Health and
// metrics routes are only added when enabled, so by default every path is
// served from the document root.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, site *SiteHandler, health *HealthHandler, m *metrics.Metrics) {
	if cfg.Health.Enabled {
		e.GET("/healthz", health.Healthz)
		e.GET("/_server/status", health.Status)
	}
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.GET("/*", site.Get)
	e.HEAD("/*", site.Static)
}
