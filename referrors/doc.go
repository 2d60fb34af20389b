// Package referrors provides structured error types for refresolver.
//
// Import path: github.com/erraggy/refresolver/referrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish between the reference that failed, the reason it
// failed, and the resource limit or configuration mistake that caused it.
//
// # Resolution Errors
//
// Every per-reference failure recorded during resolution is a [*ResolveError]
// carrying one of six codes:
//
//   - [CodeParsePointer]: a JSON Pointer could not be parsed
//   - [CodePointerMissing]: a JSON Pointer addresses nothing in its document
//   - [CodeResolveURI]: an authority could not be fetched or resolved
//   - [CodeParseURI]: a reference string is not a valid URI
//   - [CodeResolvePointer]: a pointer target could not be resolved
//   - [CodeTransformDereferenced]: a dereference transform hook failed
//
// Resolution errors are collected in the result, never returned: resolution is
// best effort and a failed reference only degrades its own branch.
//
// # Sentinel Errors
//
// Each code has a sentinel matched by errors.Is, and [ErrResolve] matches any
// [ResolveError]:
//
//	for _, e := range result.Errors {
//	    if errors.Is(e, referrors.ErrPointerMissing) {
//	        // target absent, the $ref was left in place
//	    }
//	}
//
// The remaining types describe failures of the collaborators:
//
//   - [ReferenceError]: a scheme resolver refused or failed a fetch
//   - [ParseError]: fetched content could not be decoded
//   - [ResourceLimitError]: depth, size or count limits were exceeded
//   - [ConfigError]: invalid options
package referrors
