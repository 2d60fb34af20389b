package scheme

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/erraggy/refresolver/uri"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/erraggy/refresolver/scheme"

// ErrUnknownScheme is returned by Fetch when no resolver is registered for
// the requested scheme.
var ErrUnknownScheme = errors.New("scheme: no resolver registered")

// Resolver fetches and decodes the document identified by ref.
// ref never carries a fragment.
type Resolver interface {
	Resolve(ctx context.Context, ref *uri.URI) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ref *uri.URI) (any, error)

// Resolve calls f(ctx, ref).
func (f ResolverFunc) Resolve(ctx context.Context, ref *uri.URI) (any, error) {
	return f(ctx, ref)
}

// Registry maps URI schemes to resolvers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register installs r for scheme, replacing any previous resolver.
// A nil r removes the scheme.
func (r *Registry) Register(scheme string, res Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res == nil {
		delete(r.resolvers, scheme)
		return
	}
	r.resolvers[scheme] = res
}

// Lookup returns the resolver for scheme.
func (r *Registry) Lookup(scheme string) (Resolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolvers[scheme]
	return res, ok
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]string, 0, len(r.resolvers))
	for s := range r.resolvers {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Fetch resolves ref with the resolver registered for scheme.
func (r *Registry) Fetch(ctx context.Context, scheme string, ref *uri.URI) (any, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scheme.Fetch",
		trace.WithAttributes(
			attribute.String("ref.scheme", scheme),
			attribute.String("ref.uri", ref.String()),
		))
	defer span.End()

	res, ok := r.Lookup(scheme)
	if !ok {
		err := fmt.Errorf("%w for %q", ErrUnknownScheme, scheme)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	v, err := res.Resolve(ctx, ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}
