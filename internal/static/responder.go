// Package static serves files from the document root.
package static

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"product-slug-server/internal/config"
)

// Responder serves files below a fixed document root. Regular files are
// written with http.ServeContent, so every file, index.html included, is
// returned as is. Directories (index page, listing, trailing-slash redirect)
// and lookup errors are left to http.FileServer.
type Responder struct {
	root   string
	dir    http.Dir
	files  http.Handler
	logger *slog.Logger
}

// NewResponder creates a Responder for cfg.Server.Root. The root must be an
// existing directory.
func NewResponder(cfg *config.Config, logger *slog.Logger) (*Responder, error) {
	root, err := filepath.Abs(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("static: resolve root %q: %w", cfg.Server.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("static: root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static: root %s is not a directory", root)
	}

	return &Responder{
		root:   root,
		dir:    http.Dir(root),
		files:  http.FileServer(http.Dir(root)),
		logger: logger.With("component", "static"),
	}, nil
}

// Root returns the absolute document root.
func (r *Responder) Root() string {
	return r.root
}

// ServeHTTP serves req as it arrived.
func (r *Responder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p := req.URL.Path
	if p == "" || strings.HasSuffix(p, "/") {
		r.files.ServeHTTP(w, req)
		return
	}

	f, err := r.dir.Open(path.Clean("/" + p))
	if err != nil {
		r.files.ServeHTTP(w, req)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		r.files.ServeHTTP(w, req)
		return
	}

	http.ServeContent(w, req, info.Name(), info.ModTime(), f)
}

// Serve serves target with rawQuery in place of the request's own URL.
// The original request is left untouched.
func (r *Responder) Serve(w http.ResponseWriter, req *http.Request, target, rawQuery string) {
	u := *req.URL
	u.Path = target
	u.RawPath = ""
	u.RawQuery = rawQuery

	r2 := req.Clone(req.Context())
	r2.URL = &u
	r2.RequestURI = u.RequestURI()

	r.logger.Debug("serving rewritten path",
		"from", req.URL.Path,
		"to", target,
	)

	r.ServeHTTP(w, r2)
}
