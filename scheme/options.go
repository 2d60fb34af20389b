package scheme

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/erraggy/refresolver"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

const (
	// DefaultMaxFileSize is the largest document a default resolver reads (10 MiB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
	// DefaultHTTPTimeout bounds a single HTTP fetch when no client is supplied.
	DefaultHTTPTimeout = 30 * time.Second
)

type config struct {
	httpClient         *http.Client
	userAgent          string
	insecureSkipVerify bool
	maxFileSize        int64
	baseDir            string
	http               bool
	timeout            time.Duration
}

// Option configures NewDefaultRegistry.
type Option func(*config) error

// WithHTTPClient sets the client used by the HTTP resolver.
// When set, WithInsecureSkipVerify and WithTimeout are ignored; configure
// TLS and timeouts on the client itself.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return &referrors.ConfigError{Option: "WithHTTPClient", Message: "client must not be nil"}
		}
		c.httpClient = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header for HTTP fetches.
// Default is refresolver.UserAgent().
func WithUserAgent(ua string) Option {
	return func(c *config) error {
		c.userAgent = ua
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification for HTTPS
// fetches.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *config) error {
		c.insecureSkipVerify = skip
		return nil
	}
}

// WithMaxFileSize limits the size of fetched documents in bytes.
func WithMaxFileSize(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return &referrors.ConfigError{Option: "WithMaxFileSize", Value: n, Message: "must be positive"}
		}
		c.maxFileSize = n
		return nil
	}
}

// WithBaseDir confines file references to dir and resolves relative file
// paths against it. Empty (default) means unrestricted.
func WithBaseDir(dir string) Option {
	return func(c *config) error {
		c.baseDir = dir
		return nil
	}
}

// WithHTTP controls whether http and https resolvers are registered.
// Default true.
func WithHTTP(enabled bool) Option {
	return func(c *config) error {
		c.http = enabled
		return nil
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return &referrors.ConfigError{Option: "WithTimeout", Value: d, Message: "must be positive"}
		}
		c.timeout = d
		return nil
	}
}

// NewDefaultRegistry creates a registry with the file resolver and, unless
// disabled, the HTTP(S) resolver.
func NewDefaultRegistry(opts ...Option) (*Registry, error) {
	cfg := &config{
		maxFileSize: DefaultMaxFileSize,
		http:        true,
		timeout:     DefaultHTTPTimeout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	reg := NewRegistry()
	reg.Register(uri.SchemeFile, &FileResolver{
		BaseDir:     cfg.baseDir,
		MaxFileSize: cfg.maxFileSize,
	})

	if cfg.http {
		userAgent := cfg.userAgent
		if userAgent == "" {
			userAgent = refresolver.UserAgent()
		}
		h := &HTTPResolver{
			Client:      cfg.client(),
			UserAgent:   userAgent,
			MaxFileSize: cfg.maxFileSize,
		}
		reg.Register(uri.SchemeHTTP, h)
		reg.Register(uri.SchemeHTTPS, h)
	}
	return reg, nil
}

func (c *config) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	if c.insecureSkipVerify {
		return &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // User explicitly requested insecure mode
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
	}
	return &http.Client{Timeout: c.timeout}
}
