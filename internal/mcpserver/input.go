package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/erraggy/refresolver/cache"
	"github.com/erraggy/refresolver/internal/options"
	"github.com/erraggy/refresolver/resolver"
	"github.com/erraggy/refresolver/scheme"
	"github.com/erraggy/refresolver/uri"
)

// docInput represents the three ways a document can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type docInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a JSON or YAML document on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a JSON or YAML document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline document content (JSON or YAML)"`
	Base    string `json:"base,omitempty"    jsonschema:"Base URI that relative references in inline content are resolved against"`
}

// engine bundles the resolver shared by all tool calls and the registry it
// fetches with. External documents stay cached for cfg.CacheTTL.
type engine struct {
	resolver *resolver.Resolver
	registry *scheme.Registry
}

var (
	engineOnce   sync.Once
	sharedEngine *engine
	engineErr    error
)

// getEngine returns the process-wide engine, building it on first use.
func getEngine() (*engine, error) {
	engineOnce.Do(func() {
		sharedEngine, engineErr = newEngine(cfg)
	})
	return sharedEngine, engineErr
}

func newEngine(c *serverConfig) (*engine, error) {
	schemeOpts := []scheme.Option{
		scheme.WithHTTP(c.AllowHTTP),
		scheme.WithMaxFileSize(c.MaxFileSize),
		scheme.WithTimeout(c.HTTPTimeout),
	}
	// Inject SSRF-safe HTTP client for URL resolution unless private IPs are allowed.
	if !c.AllowPrivateIPs {
		schemeOpts = append(schemeOpts, scheme.WithHTTPClient(scheme.NewSafeHTTPClient(c.HTTPTimeout)))
	}
	reg, err := scheme.NewDefaultRegistry(schemeOpts...)
	if err != nil {
		return nil, err
	}

	r, err := resolver.New(
		resolver.WithResolvers(reg),
		resolver.WithCache(cache.New(cache.WithTTL(c.CacheTTL))),
		resolver.WithMaxURIDepth(c.MaxURIDepth),
		resolver.WithLogger(resolver.NewSlogAdapter(slog.Default())),
	)
	if err != nil {
		return nil, err
	}
	return &engine{resolver: r, registry: reg}, nil
}

// load fetches or decodes the document from whichever input was provided
// and returns it with the base URI its relative references resolve
// against.
func (d docInput) load(ctx context.Context, e *engine) (any, string, error) {
	if err := options.ValidateSingleInputSource(
		"exactly one of file, url, or content must be provided (got 0)",
		"exactly one of file, url, or content must be provided (got more than one)",
		d.File != "", d.URL != "", d.Content != "",
	); err != nil {
		return nil, "", err
	}

	// Enforce inline content size limit.
	if d.Content != "" && int64(len(d.Content)) > cfg.MaxInlineSize {
		return nil, "", fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set REFRESOLVER_MAX_INLINE_SIZE to increase",
			len(d.Content), cfg.MaxInlineSize)
	}

	switch {
	case d.File != "":
		abs, err := filepath.Abs(d.File)
		if err != nil {
			return nil, "", err
		}
		ref, err := uri.Parse(filepath.ToSlash(abs))
		if err != nil {
			return nil, "", err
		}
		doc, err := e.registry.Fetch(ctx, uri.SchemeFile, ref)
		return doc, ref.String(), err
	case d.URL != "":
		u, err := uri.Parse(d.URL)
		if err != nil {
			return nil, "", err
		}
		if !u.IsHTTP() {
			return nil, "", fmt.Errorf("url must use http or https, got %q", d.URL)
		}
		if !cfg.AllowHTTP {
			return nil, "", fmt.Errorf("fetching URLs is disabled; set REFRESOLVER_ALLOW_HTTP=true to enable")
		}
		base := u.WithoutFragment()
		doc, err := e.registry.Fetch(ctx, u.Scheme(), base)
		return doc, base.String(), err
	default:
		doc, err := scheme.Decode([]byte(d.Content), scheme.FormatUnknown)
		return doc, d.Base, err
	}
}

// resolve loads the document and dereferences it with the shared engine.
func (d docInput) resolve(ctx context.Context, opts ...resolver.Option) (*resolver.Result, error) {
	e, err := getEngine()
	if err != nil {
		return nil, err
	}
	doc, base, err := d.load(ctx, e)
	if err != nil {
		return nil, err
	}
	opts = append([]resolver.Option{resolver.WithBaseURI(base)}, opts...)
	return e.resolver.Resolve(ctx, doc, opts...)
}

// refs loads the document and lists its references.
func (d docInput) refs(ctx context.Context) ([]resolver.RefInfo, error) {
	e, err := getEngine()
	if err != nil {
		return nil, err
	}
	doc, base, err := d.load(ctx, e)
	if err != nil {
		return nil, err
	}
	return e.resolver.Refs(ctx, doc, resolver.WithBaseURI(base))
}
