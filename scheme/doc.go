// Package scheme provides the pluggable fetchers that load external
// documents for reference resolution.
//
// A [Resolver] turns an authority (a [uri.URI] without fragment) into a
// decoded document value. Resolvers are registered by URI scheme in a
// [Registry]; the resolution engine looks up the scheme of every external
// reference and calls [Registry.Fetch].
//
// # Default resolvers
//
// [NewDefaultRegistry] registers a [FileResolver] for "file" and, unless
// disabled with WithHTTP(false), an [HTTPResolver] for "http" and "https":
//
//	reg, err := scheme.NewDefaultRegistry(
//	    scheme.WithBaseDir("./specs"),
//	    scheme.WithMaxFileSize(5<<20),
//	)
//
// # Custom schemes
//
// Any value implementing [Resolver], or a plain function wrapped in
// [ResolverFunc], can be registered:
//
//	reg.Register("mem", scheme.ResolverFunc(func(ctx context.Context, ref *uri.URI) (any, error) {
//	    return store[ref.Path()], nil
//	}))
//
// Resolvers must be idempotent for the same authority: their results are
// cached and shared by every reference to that authority.
//
// # Tracing
//
// Every [Registry.Fetch] runs inside an OpenTelemetry span named
// "scheme.Fetch" created from the global tracer provider.
package scheme
