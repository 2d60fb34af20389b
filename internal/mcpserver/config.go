package mcpserver

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Fetch settings.
	AllowHTTP       bool
	AllowPrivateIPs bool
	HTTPTimeout     time.Duration
	MaxFileSize     int64

	// Resolution settings.
	MaxURIDepth int
	CacheTTL    time.Duration

	// Input and output limits.
	MaxInlineSize int64
	ListLimit     int
	MaxLimit      int
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from REFRESOLVER_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		AllowHTTP:       envBool("REFRESOLVER_ALLOW_HTTP", true),
		AllowPrivateIPs: envBool("REFRESOLVER_ALLOW_PRIVATE_IPS", false),
		HTTPTimeout:     envDuration("REFRESOLVER_HTTP_TIMEOUT", 30*time.Second),
		MaxFileSize:     envInt64("REFRESOLVER_MAX_FILE_SIZE", 10*1024*1024),
		MaxURIDepth:     envInt("REFRESOLVER_MAX_URI_DEPTH", 100),
		CacheTTL:        envDuration("REFRESOLVER_CACHE_TTL", 5*time.Minute),
		MaxInlineSize:   envInt64("REFRESOLVER_MAX_INLINE_SIZE", 10*1024*1024),
		ListLimit:       envInt("REFRESOLVER_LIST_LIMIT", 100),
		MaxLimit:        envInt("REFRESOLVER_MAX_LIMIT", 1000),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return d
}
