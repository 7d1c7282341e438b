// Package banner prints the human-readable startup and shutdown lines.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"product-slug-server/internal/service"
)

const ruleWidth = 60

// Info is what the startup banner describes.
type Info struct {
	Port int
	Root string
}

// Printer writes banners to an output stream. Colour is applied only when
// the fatih/color package detects a terminal.
type Printer struct {
	out   io.Writer
	title *color.Color
	ok    *color.Color
	bad   *color.Color
	hint  *color.Color
}

// New creates a Printer writing to out.
func New(out io.Writer) *Printer {
	return &Printer{
		out:   out,
		title: color.New(color.Bold),
		ok:    color.New(color.FgGreen),
		bad:   color.New(color.FgRed),
		hint:  color.New(color.FgCyan),
	}
}

// Startup prints the URLs, rewrite rules and blocked URL forms.
func (p *Printer) Startup(info Info) {
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(p.out, rule)
	p.title.Fprintln(p.out, "Local Development Server Started")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintf(p.out, "Server running at: http://127.0.0.1:%d\n", info.Port)
	fmt.Fprintf(p.out, "Alternative URL:   http://localhost:%d\n", info.Port)
	fmt.Fprintf(p.out, "Serving:           %s\n", info.Root)
	fmt.Fprintln(p.out, rule)
	p.ok.Fprintln(p.out, "URL Rewriting Enabled:")
	for _, prefix := range service.SlugPrefixes {
		fmt.Fprintf(p.out, "   %sslug -> %s\n", prefix, service.ProductPage)
	}
	fmt.Fprintln(p.out, rule)
	p.bad.Fprintln(p.out, "Blocked URLs (will return 404):")
	for _, pattern := range service.BlockedPatterns {
		fmt.Fprintf(p.out, "   %s\n", pattern)
	}
	fmt.Fprintln(p.out, rule)
	p.hint.Fprintln(p.out, "Press CTRL+C to stop the server")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out)
}

// Shutdown prints the farewell line.
func (p *Printer) Shutdown() {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Server stopped. Goodbye!")
}
