package resolver

import (
	"context"

	"github.com/erraggy/refresolver/uri"
)

// RefExtractor decides whether a document node is a reference and returns
// the reference string.
type RefExtractor interface {
	// Extract is called for every node visited by the crawler. key is the
	// mapping key or sequence index under which value sits ("" for the
	// crawl root).
	Extract(key string, value any) (ref string, ok bool)
}

// ExtractorFunc adapts a function to the RefExtractor interface.
type ExtractorFunc func(key string, value any) (string, bool)

// Extract calls f(key, value).
func (f ExtractorFunc) Extract(key string, value any) (string, bool) {
	return f(key, value)
}

// KeyExtractor matches mappings holding a string under field.
type KeyExtractor string

// Extract implements RefExtractor.
func (k KeyExtractor) Extract(_ string, value any) (string, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	ref, ok := m[string(k)].(string)
	return ref, ok
}

// DefaultExtractor recognises JSON References: mappings with a string
// "$ref" field.
var DefaultExtractor RefExtractor = KeyExtractor("$ref")

// RefSite describes a node the crawler is looking at.
type RefSite struct {
	// Key is the mapping key or sequence index of the node.
	Key string
	// Value is the node itself.
	Value any
	// Pointer is the node's location as a JSON Pointer.
	Pointer string
	// PointerStack lists the internal targets followed to reach the node.
	PointerStack []string
}

// RefTransformInput is passed to a RefTransformFunc.
type RefTransformInput struct {
	RefSite
	// Ref is the computed, absolutized reference.
	Ref *uri.URI
	// BaseURI is the authority of the document holding the reference.
	BaseURI *uri.URI
}

// RefTransformFunc rewrites a computed reference. Returning a nil URI
// without error makes the node a plain value; an error is reported as
// PARSE_URI for that node.
type RefTransformFunc func(ctx context.Context, in RefTransformInput) (*uri.URI, error)

// ParseInput is passed to a ResultParserFunc.
type ParseInput struct {
	// Result is the value returned by the scheme resolver.
	Result any
	// TargetAuthority is the fetched authority, without fragment.
	TargetAuthority *uri.URI
	// ParentAuthority is the authority of the referencing document.
	ParentAuthority *uri.URI
	// ParentPath is the location of the reference in the referencing document.
	ParentPath []string
	// Fragment is the fragment of the reference.
	Fragment string
}

// ResultParserFunc post-processes a fetched document before it is
// resolved. The parsed value is cached in place of the raw one. An error
// is reported as RESOLVE_URI.
type ResultParserFunc func(ctx context.Context, in ParseInput) (any, error)

// TransformInput is passed to a DereferenceTransformFunc.
type TransformInput struct {
	// Source is the runner's document after substitution.
	Source any
	// Result is the dereferenced value at the requested pointer.
	Result any
	// TargetAuthority is the requested pointer as a fragment-only URI.
	TargetAuthority *uri.URI
	// ParentAuthority is the runner's authority.
	ParentAuthority *uri.URI
	// ParentPath is the location of the reference that led here, if any.
	ParentPath []string
	// Fragment is the requested pointer.
	Fragment string
}

// DereferenceTransformFunc rewrites the final result of a runner. A non-nil
// returned value replaces the result even when an error is returned; the
// error is reported as TRANSFORM_DEREFERENCED.
type DereferenceTransformFunc func(ctx context.Context, in TransformInput) (any, error)
