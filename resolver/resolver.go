package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

// Resolver dereferences JSON References. A Resolver is safe for concurrent
// use; every Resolve call runs in its own Session while the cache is
// shared across calls.
type Resolver struct {
	cfg *config
}

// New creates a Resolver.
func New(opts ...Option) (*Resolver, error) {
	cfg := defaultConfig()
	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}
	return &Resolver{cfg: cfg}, nil
}

// Cache returns the cache shared by the Resolver's calls.
func (r *Resolver) Cache() Cache {
	return r.cfg.cache
}

// Resolve dereferences source. Options given here apply to this call
// only, on top of those given to New. Resolution failures are reported in Result.Errors; an error is
// returned only for invalid options.
func (r *Resolver) Resolve(ctx context.Context, source any, opts ...Option) (*Result, error) {
	cfg, err := r.callConfig(opts)
	if err != nil {
		return nil, err
	}
	base, err := parseBase(cfg.baseURI)
	if err != nil {
		return nil, err
	}
	return run(ctx, cfg, document.Normalize(source), base), nil
}

// ResolveURI loads the document at ref with the registered scheme
// resolvers and dereferences it. A fragment in ref selects the subtree to
// resolve unless WithJSONPointer is given. Failing to load the document
// is returned as an error.
func (r *Resolver) ResolveURI(ctx context.Context, ref string, opts ...Option) (*Result, error) {
	cfg, err := r.callConfig(opts)
	if err != nil {
		return nil, err
	}
	target, err := uri.Parse(ref)
	if err != nil {
		return nil, &referrors.ReferenceError{Ref: ref, Message: "invalid reference", Cause: err}
	}
	target = target.FSPath()
	name := target.Scheme()
	if name == "" {
		name = uri.SchemeFile
	}
	doc, err := cfg.resolvers.Fetch(ctx, name, target.WithoutFragment())
	if err != nil {
		return nil, err
	}
	if cfg.jsonPointer == "" {
		cfg.jsonPointer = target.Fragment()
	}
	return run(ctx, cfg, document.Normalize(doc), target.WithoutFragment()), nil
}

func (r *Resolver) callConfig(opts []Option) (*config, error) {
	cfg := *r.cfg
	if err := applyOptions(&cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func run(ctx context.Context, cfg *config, source any, base *uri.URI) *Result {
	s := newSession(cfg)
	root := s.newRunner(source, base, 0, []string{})
	root.log.Debug("resolving document", "pointer", cfg.jsonPointer)
	res := root.Resolve(ctx, RunOptions{JSONPointer: cfg.jsonPointer})
	if len(res.Errors) > 0 {
		root.log.Info("resolution finished with errors", "errors", len(res.Errors))
	}
	return res
}

func parseBase(base string) (*uri.URI, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return uri.MustParse(""), nil
	}
	u, err := uri.Parse(base)
	if err != nil {
		return nil, &referrors.ConfigError{
			Option:  "base URI",
			Value:   base,
			Message: fmt.Sprintf("cannot parse %q", base),
			Cause:   err,
		}
	}
	return u, nil
}

// Resolve dereferences source with a Resolver built from opts.
func Resolve(ctx context.Context, source any, opts ...Option) (*Result, error) {
	r, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, source)
}
