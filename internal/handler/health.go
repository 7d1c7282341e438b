// Package handler implements the HTTP handlers of the slug server.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"product-slug-server/internal/config"
	"product-slug-server/internal/static"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	root    string
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, files *static.Responder, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, root: files.Root(), version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns server status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": string(h.version),
		"root":    h.root,
		"addr":    h.cfg.Server.Addr(),
	})
}
