package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"product-slug-server/internal/config"
	"product-slug-server/internal/metrics"
	"product-slug-server/internal/service"
	"product-slug-server/internal/static"
)

const productBody = "<html><body>product template</body></html>"

// newTestSite builds a document root with product.html and friends and
// returns the Echo instance with all routes registered.
func newTestSite(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"product.html":   productBody,
		"index.html":     "<h1>home</h1>",
		"products.html":  "<ul>catalog</ul>",
		"css/site.css":   "body{}",
		"product/x.html": "nested",
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8000, Root: root}}
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	responder, err := static.NewResponder(cfg, logger)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}

	site := NewSiteHandler(service.NewGatekeeper(logger, m), responder, logger)
	health := NewHealthHandler(cfg, responder, "test")

	e := echo.New()
	RegisterRoutes(e, cfg, site, health, m)
	return e
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSiteHandler_Get(t *testing.T) {
	e := newTestSite(t, nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"product slug", "/product/blue-widget", http.StatusOK, productBody},
		{"products slug", "/products/blue-widget", http.StatusOK, productBody},
		{"slug with query", "/products/blue-widget?color=red", http.StatusOK, productBody},
		{"slug with id", "/product/blue-widget?id=5", http.StatusOK, productBody},
		{"nested slug", "/product/widgets/blue", http.StatusOK, productBody},
		{"slug shadows real file", "/product/x.html", http.StatusOK, productBody},
		{"product page with id", "/product.html?id=123", http.StatusNotFound, service.NotFoundMessage},
		{"any product path with id", "/not-a-product/x?id=1", http.StatusNotFound, service.NotFoundMessage},
		{"bare product page", "/product.html", http.StatusNotFound, service.NotFoundMessage},
		{"product page with other query", "/product.html?foo=bar", http.StatusOK, productBody},
		{"catalog page", "/products.html", http.StatusOK, "<ul>catalog</ul>"},
		{"root index", "/", http.StatusOK, "<h1>home</h1>"},
		{"asset", "/css/site.css", http.StatusOK, "body{}"},
		{"missing file", "/missing.html", http.StatusNotFound, ""},
		{"id on unrelated path", "/index.html?id=1", http.StatusOK, "<h1>home</h1>"},
		{"index page by name", "/index.html", http.StatusOK, "<h1>home</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s: status = %d, want %d", tt.target, rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("GET %s: body = %q, want it to contain %q", tt.target, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestSiteHandler_SlugMatchesDirectPage(t *testing.T) {
	e := newTestSite(t, nil)

	slug := doRequest(e, http.MethodGet, "/products/blue-widget?color=red")
	direct := doRequest(e, http.MethodGet, "/product.html?color=red")

	if slug.Code != http.StatusOK || direct.Code != http.StatusOK {
		t.Fatalf("status = %d / %d, want 200 / 200", slug.Code, direct.Code)
	}
	if slug.Body.String() != direct.Body.String() {
		t.Errorf("slug body = %q, direct body = %q", slug.Body.String(), direct.Body.String())
	}
	if got, want := slug.Header().Get("Content-Type"), direct.Header().Get("Content-Type"); got != want {
		t.Errorf("Content-Type = %q, want %q", got, want)
	}
}

func TestSiteHandler_EmptySlugNotRewritten(t *testing.T) {
	e := newTestSite(t, nil)

	rec := doRequest(e, http.MethodGet, "/product/")
	if strings.Contains(rec.Body.String(), productBody) {
		t.Errorf("GET /product/ served the product page; want ordinary directory handling")
	}
}

func TestSiteHandler_RejectWithoutFileOnDisk(t *testing.T) {
	e := newTestSite(t, nil)

	// Policy rejections do not depend on the file system; a missing
	// product.html still yields the product message.
	rec := doRequest(e, http.MethodGet, "/product.html?id=42")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Product not found") {
		t.Errorf("body = %q, want it to contain %q", rec.Body.String(), "Product not found")
	}

	root := t.TempDir()
	cfg := &config.Config{Server: config.ServerConfig{Root: root}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	responder, err := static.NewResponder(cfg, logger)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	empty := echo.New()
	RegisterRoutes(empty, cfg, NewSiteHandler(service.NewGatekeeper(logger, nil), responder, logger), NewHealthHandler(cfg, responder, "test"), metrics.New())

	rec = doRequest(empty, http.MethodGet, "/product.html?id=42")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("empty root: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "Product not found") {
		t.Errorf("empty root: body = %q, want it to contain %q", rec.Body.String(), "Product not found")
	}
}

func TestSiteHandler_Get_ReturnsPolicyError(t *testing.T) {
	e := echo.New()
	root := t.TempDir()
	cfg := &config.Config{Server: config.ServerConfig{Root: root}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	responder, err := static.NewResponder(cfg, logger)
	if err != nil {
		t.Fatalf("NewResponder: %v", err)
	}
	h := NewSiteHandler(service.NewGatekeeper(logger, nil), responder, logger)

	req := httptest.NewRequest(http.MethodGet, "/product.html", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = h.Get(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("Get() error = %v, want *echo.HTTPError", err)
	}
	if he.Code != http.StatusNotFound {
		t.Errorf("code = %d, want %d", he.Code, http.StatusNotFound)
	}
	if !errors.Is(err, service.ErrProductNotFound) {
		t.Errorf("errors.Is(err, ErrProductNotFound) = false, want true")
	}
}

func TestSiteHandler_HeadIsNotRewritten(t *testing.T) {
	e := newTestSite(t, nil)

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/product.html", http.StatusOK},
		{"/product/blue-widget", http.StatusNotFound},
		{"/index.html?id=1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := doRequest(e, http.MethodHead, tt.target)
			if rec.Code != tt.wantStatus {
				t.Errorf("HEAD %s: status = %d, want %d", tt.target, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSiteHandler_OtherMethodsNotAllowed(t *testing.T) {
	e := newTestSite(t, nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := doRequest(e, method, "/product/blue-widget")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s: status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}
