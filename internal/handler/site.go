package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"product-slug-server/internal/model"
	"product-slug-server/internal/service"
	"product-slug-server/internal/static"
)

// SiteHandler serves the document root behind the Gatekeeper.
type SiteHandler struct {
	gatekeeper *service.Gatekeeper
	files      *static.Responder
	logger     *slog.Logger
}

// NewSiteHandler creates a SiteHandler.
func NewSiteHandler(g *service.Gatekeeper, files *static.Responder, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		gatekeeper: g,
		files:      files,
		logger:     logger.With("component", "site_handler"),
	}
}

// Get classifies a GET request and rewrites, rejects or passes it on to the
// static responder.
func (h *SiteHandler) Get(c echo.Context) error {
	req := c.Request()

	d := h.gatekeeper.Decide(model.Request{
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
	})

	switch d.Kind {
	case model.DecisionRewrite:
		h.files.Serve(c.Response(), req, d.TargetPath, d.RawQuery)
		return nil
	case model.DecisionReject:
		return echo.NewHTTPError(d.StatusCode, d.Message).SetInternal(service.ErrProductNotFound)
	default:
		h.files.ServeHTTP(c.Response(), req)
		return nil
	}
}

// Static serves the request without classification. It backs HEAD, which
// is never rewritten.
func (h *SiteHandler) Static(c echo.Context) error {
	h.files.ServeHTTP(c.Response(), c.Request())
	return nil
}
