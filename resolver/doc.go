// Package resolver dereferences JSON References ($ref) in decoded JSON and
// YAML documents.
//
// A document is any tree of map[string]any, []any and scalars. Every node
// that holds a reference is replaced by the value it points to: a JSON
// Pointer into the same document ("#/components/Pet"), or another
// document addressed by file path or URL ("common.yaml#/Pet"). External
// documents are fetched through the [scheme] registry and resolved
// recursively, each by its own [Runner].
//
// # Quick Start
//
//	r, err := resolver.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := r.Resolve(ctx, doc, resolver.WithBaseURI("/specs/root.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, e := range res.Errors {
//		fmt.Println(e)
//	}
//
// # Partial failure
//
// Resolution never stops at the first problem. A reference that cannot be
// resolved keeps its original value and the failure is recorded in
// [Result.Errors] as a *referrors.ResolveError with one of the codes
// PARSE_POINTER, POINTER_MISSING, RESOLVE_URI, PARSE_URI, RESOLVE_POINTER
// or TRANSFORM_DEREFERENCED.
//
// # Cycles
//
// A reference to a document already being resolved up the chain keeps its
// original value. An internal reference whose target contains it is left
// in place. Chains of external documents are bounded by
// [WithMaxURIDepth].
//
// # Provenance
//
// [Result.RefMap] maps every substituted location to what it was resolved
// from, and [Result.Origin] follows it back to the document and path that
// supplied any value of the resolved tree.
//
// # Immutability
//
// The input document is never modified. Each substitution produces a new
// snapshot that shares unchanged subtrees with the previous one, so
// values in the result must be treated as read-only.
package resolver
