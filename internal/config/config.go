// Package config handles CLI parsing, optional TOML configuration and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPort is used when neither the CLI nor the config file sets a port.
const DefaultPort = 8000

// configSearchPaths lists paths checked in order when no explicit config is given.
// Finding none is not an error: the server runs on defaults.
var configSearchPaths = []string{
	"product-slug-server.toml",
	"configs/config.toml",
}

// CLI holds command-line arguments parsed by Kong.
//
// Port values are kept as strings so that an unparsable value can be
// reported and ignored instead of aborting the process.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     string `kong:"short='p',help='Listen port (overrides config and the positional port).',env='PORT'"`
	Root     string `kong:"short='d',help='Document root to serve (overrides config).',env='DOC_ROOT'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`

	PortArg string `kong:"arg,optional,name='port-number',help='Listen port, positional form.'"`

	Version kong.VersionFlag `kong:"help='Print version and exit.'"`

	// PortMissing is set when --port was given without a value; see DropDanglingPort.
	PortMissing bool `kong:"-"`
}

// DropDanglingPort removes a --port/-p flag that has no value, either
// because it is the last argument or because another flag follows it.
// A negative number such as -1 is kept as the value so validation rejects it.
// Kong would reject such a command line; the server warns and falls back to
// the default port instead. The second result reports whether a flag was dropped.
func DropDanglingPort(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	dropped := false
	for i, a := range args {
		if a == "--port" || a == "-p" {
			if i+1 == len(args) || isFlag(args[i+1]) {
				dropped = true
				continue
			}
		}
		out = append(out, a)
	}
	return out, dropped
}

func isFlag(a string) bool {
	return len(a) > 1 && a[0] == '-' && (a[1] < '0' || a[1] > '9')
}

// Config is the top-level application configuration. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	Health  HealthConfig  `toml:"health"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string   // resolved config file path, empty when running on defaults
	warnings []string // problems found while applying CLI arguments
	portSet  bool     // port chosen on the command line; 0 then means "any free port"
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string          `toml:"host"`
	Port      int             `toml:"port"` // 0 in TOML means "use default" (8000); TOML cannot distinguish 0 from unset
	Root      string          `toml:"root"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// HealthConfig toggles the /healthz and /_server/status routes.
type HealthConfig struct {
	Enabled bool `toml:"enabled"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Paths owned by the server itself. A metrics path must not shadow them.
var (
	productRoutes = []string{"/product", "/products", "/product.html"}
	healthRoutes  = []string{"/healthz", "/_server"}
)

// Load reads the TOML config file, if any, and applies CLI overrides.
// An explicit path (via --config or CONFIG_PATH) must exist; otherwise
// product-slug-server.toml then configs/config.toml are tried and defaults
// are used when neither exists.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Root != "" {
		c.Server.Root = cli.Root
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	c.applyPort(cli)
}

// applyPort resolves the listen port from --port or the positional argument.
// --port wins when given, even if its value is missing or invalid. A port of
// 0 given here asks the kernel for a free port.
func (c *Config) applyPort(cli *CLI) {
	if cli.PortMissing {
		c.warnings = append(c.warnings, "missing port number after --port, using default port")
		return
	}
	if cli.Port != "" {
		port, err := strconv.Atoi(strings.TrimSpace(cli.Port))
		if err != nil {
			c.warnings = append(c.warnings, fmt.Sprintf("invalid port number %q, using default port", cli.Port))
			return
		}
		c.Server.Port = port
		c.portSet = true
		return
	}

	if cli.PortArg == "" {
		return
	}
	if !isDigits(cli.PortArg) {
		c.warnings = append(c.warnings, fmt.Sprintf("ignoring non-numeric argument %q, using default port", cli.PortArg))
		return
	}
	port, err := strconv.Atoi(cli.PortArg)
	if err != nil {
		c.warnings = append(c.warnings, fmt.Sprintf("invalid port number %q, using default port", cli.PortArg))
		return
	}
	c.Server.Port = port
	c.portSet = true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0-65535; got %d", c.Server.Port)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Path != "" {
		if err := c.validateMetricsPath(c.Metrics.Path); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateMetricsPath(p string) error {
	if p[0] != '/' {
		return fmt.Errorf("metrics.path must start with '/'; got %q", p)
	}
	reserved := productRoutes
	if c.Health.Enabled {
		reserved = append(append([]string{}, productRoutes...), healthRoutes...)
	}
	for _, r := range reserved {
		if p == r || strings.HasPrefix(p, r+"/") {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, r)
		}
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 && !c.portSet {
		c.Server.Port = DefaultPort
	}
	if c.Server.Root == "" {
		c.Server.Root = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FilePath returns the config file that was loaded, or "" when running on defaults.
func (c *Config) FilePath() string {
	return c.filePath
}

// Warn logs problems deferred from Load, which runs before a logger exists.
func (c *Config) Warn(logger *slog.Logger) {
	for _, w := range c.warnings {
		logger.Warn(w, "port", c.Server.Port)
	}
	if c.filePath == "" {
		logger.Info("no config file found, using defaults", "searched", configSearchPaths)
	}
}
