package resolver

import (
	"fmt"

	"github.com/erraggy/refresolver/cache"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/scheme"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxURIDepth bounds the chain of external documents resolved from
// one another.
const DefaultMaxURIDepth = 100

// Cache stores fetched documents and the root runner registry. It is
// satisfied by *cache.Cache.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Has(key string) bool
	Purge()
}

var _ Cache = (*cache.Cache)(nil)

// Option configures a Resolver or a single Resolve call.
type Option func(*config) error

type config struct {
	resolvers            *scheme.Registry
	cache                Cache
	extractor            RefExtractor
	refTransform         RefTransformFunc
	resultParser         ResultParserFunc
	dereferenceTransform DereferenceTransformFunc
	dereferenceInline    bool
	dereferenceRemote    bool
	maxURIDepth          int
	logger               Logger
	fetches              *singleflight.Group

	// per call
	baseURI     string
	jsonPointer string
}

func defaultConfig() *config {
	return &config{
		extractor:         DefaultExtractor,
		dereferenceInline: true,
		dereferenceRemote: true,
		maxURIDepth:       DefaultMaxURIDepth,
		logger:            NopLogger{},
		fetches:           new(singleflight.Group),
	}
}

func applyOptions(cfg *config, opts ...Option) error {
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return err
		}
	}
	if cfg.resolvers == nil {
		reg, err := scheme.NewDefaultRegistry()
		if err != nil {
			return fmt.Errorf("resolver: default scheme registry: %w", err)
		}
		cfg.resolvers = reg
	}
	if cfg.cache == nil {
		cfg.cache = cache.New()
	}
	return nil
}

// WithResolvers sets the scheme registry used for external references.
// Default is scheme.NewDefaultRegistry().
func WithResolvers(reg *scheme.Registry) Option {
	return func(c *config) error {
		if reg == nil {
			return &referrors.ConfigError{Option: "WithResolvers", Message: "registry must not be nil"}
		}
		c.resolvers = reg
		return nil
	}
}

// WithCache sets the store shared by every Resolve call of a Resolver.
func WithCache(store Cache) Option {
	return func(c *config) error {
		if store == nil {
			return &referrors.ConfigError{Option: "WithCache", Message: "cache must not be nil"}
		}
		c.cache = store
		return nil
	}
}

// WithRefExtractor sets how reference nodes are recognised.
// Default is DefaultExtractor.
func WithRefExtractor(e RefExtractor) Option {
	return func(c *config) error {
		if e == nil {
			return &referrors.ConfigError{Option: "WithRefExtractor", Message: "extractor must not be nil"}
		}
		c.extractor = e
		return nil
	}
}

// WithRefTransform installs a hook that rewrites every computed reference.
func WithRefTransform(fn RefTransformFunc) Option {
	return func(c *config) error {
		c.refTransform = fn
		return nil
	}
}

// WithResultParser installs a hook that post-processes fetched documents.
func WithResultParser(fn ResultParserFunc) Option {
	return func(c *config) error {
		c.resultParser = fn
		return nil
	}
}

// WithDereferenceTransform installs a hook that rewrites each runner's
// final result.
func WithDereferenceTransform(fn DereferenceTransformFunc) Option {
	return func(c *config) error {
		c.dereferenceTransform = fn
		return nil
	}
}

// WithDereferenceInline controls whether internal references of the root
// document are replaced by their targets. Documents loaded from external
// references are always dereferenced inline. Default true.
func WithDereferenceInline(enabled bool) Option {
	return func(c *config) error {
		c.dereferenceInline = enabled
		return nil
	}
}

// WithDereferenceRemote controls whether external references are fetched.
// Default true.
func WithDereferenceRemote(enabled bool) Option {
	return func(c *config) error {
		c.dereferenceRemote = enabled
		return nil
	}
}

// WithMaxURIDepth bounds the chain of external documents. Default 100.
func WithMaxURIDepth(depth int) Option {
	return func(c *config) error {
		if depth < 1 {
			return &referrors.ConfigError{Option: "WithMaxURIDepth", Value: depth, Message: "must be at least 1"}
		}
		c.maxURIDepth = depth
		return nil
	}
}

// WithLogger sets the logger. Default is NopLogger.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		if l == nil {
			l = NopLogger{}
		}
		c.logger = l
		return nil
	}
}

// WithBaseURI sets the authority of the document being resolved: a file
// path or URL that relative references are joined against.
func WithBaseURI(base string) Option {
	return func(c *config) error {
		c.baseURI = base
		return nil
	}
}

// WithJSONPointer restricts resolution to the subtree at ptr
// ("/a/b" or "#/a/b"). An invalid pointer is reported as PARSE_POINTER in
// the result, not as an option error.
func WithJSONPointer(ptr string) Option {
	return func(c *config) error {
		c.jsonPointer = ptr
		return nil
	}
}
