// Package service implements the request rewriting and blocking policy.
package service

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"product-slug-server/internal/metrics"
	"product-slug-server/internal/model"
)

// ProductPage is the single template page that every product slug resolves to.
const ProductPage = "/product.html"

// NotFoundMessage is sent for every blocked URL form.
const NotFoundMessage = "Product not found"

// ErrProductNotFound marks a request rejected by policy rather than by a missing file.
var ErrProductNotFound = errors.New("product not found")

// SlugPrefixes are the path prefixes rewritten to ProductPage when a slug follows.
var SlugPrefixes = []string{"/product/", "/products/"}

// BlockedPatterns describes the URL forms answered with 404, for display.
var BlockedPatterns = []string{
	ProductPage + "?id=*",
	ProductPage + " (direct access)",
}

// Classify decides what to do with a GET request. Rules are tried in order
// and the first match wins:
//
//  1. /product/<slug> and /products/<slug> are served from ProductPage with
//     the query kept as is. The slug itself is discarded.
//  2. Any path containing "product" with an id query parameter is rejected.
//  3. ProductPage without a query is rejected.
//  4. Everything else passes through.
//
// Classify is pure and safe for concurrent use.
func Classify(req model.Request) model.Decision {
	if hasSlug(req.Path) {
		return model.Rewrite(ProductPage, req.RawQuery)
	}

	if hasQueryKey(req.RawQuery, "id") && strings.Contains(req.Path, "product") {
		return model.Reject(http.StatusNotFound, NotFoundMessage)
	}

	if req.Path == ProductPage && req.RawQuery == "" {
		return model.Reject(http.StatusNotFound, NotFoundMessage)
	}

	return model.PassThrough()
}

// hasSlug reports whether path is a slug prefix followed by a non-empty
// remainder. "/product/" alone does not count.
func hasSlug(path string) bool {
	for _, prefix := range SlugPrefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		parts := strings.SplitN(path, "/", 3)
		return len(parts) == 3 && parts[2] != ""
	}
	return false
}

// hasQueryKey reports whether rawQuery has a key=value pair for key with a
// non-empty raw value. Keys are form-decoded; a key that fails to decode is
// compared as written. Values are never decoded, so a malformed escape such
// as id=%zz still counts.
func hasQueryKey(rawQuery, key string) bool {
	for _, pair := range strings.Split(rawQuery, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			continue
		}
		if decodeQueryKey(k) == key {
			return true
		}
	}
	return false
}

func decodeQueryKey(k string) string {
	if dk, err := url.QueryUnescape(k); err == nil {
		return dk
	}
	return strings.ReplaceAll(k, "+", " ")
}

// Gatekeeper applies Classify to inbound requests and records the outcome.
type Gatekeeper struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewGatekeeper creates a Gatekeeper.
// The metrics parameter is optional; pass nil to disable decision metrics.
func NewGatekeeper(logger *slog.Logger, m *metrics.Metrics) *Gatekeeper {
	return &Gatekeeper{
		logger:  logger.With("component", "gatekeeper"),
		metrics: m,
	}
}

// Decide classifies req and records the decision.
func (g *Gatekeeper) Decide(req model.Request) model.Decision {
	d := Classify(req)

	if g.metrics != nil {
		g.metrics.Decisions.WithLabelValues(d.Kind.String()).Inc()
	}

	g.logger.Debug("classified request",
		"path", req.Path,
		"query", req.RawQuery,
		"decision", d.Kind.String(),
	)

	return d
}
