// Package refresolver resolves JSON References ($ref) in JSON and YAML
// documents, tracking where every substituted value came from.
//
// The root package only carries build information. The work happens in
// the subpackages:
//
//   - resolver: dereference a document, or list its references
//   - scheme: per-scheme document loaders (file, http, https) and decoding
//   - cache: TTL cache for fetched documents, shared across resolutions
//   - depgraph: dependency graph used to order substitutions and detect cycles
//   - pointer: JSON Pointer (RFC 6901) parsing and formatting
//   - uri: reference URIs with base resolution and cache keys
//   - document: copy-on-write access to decoded documents
//   - referrors: typed errors and resolution error codes
//
// # Installation
//
//	go get github.com/erraggy/refresolver
//
// # Quick Start
//
// Resolve an in-memory document:
//
//	import "github.com/erraggy/refresolver/resolver"
//
//	doc := map[string]any{
//		"pet":  map[string]any{"$ref": "#/defs/Pet"},
//		"defs": map[string]any{"Pet": map[string]any{"type": "object"}},
//	}
//	res, err := resolver.Resolve(ctx, doc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, e := range res.Errors {
//		fmt.Println(e)
//	}
//
// Resolve a file and everything it references:
//
//	r, err := resolver.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := r.ResolveURI(ctx, "/specs/openapi.yaml")
//
// Resolution never stops at the first failure. Each reference that cannot
// be resolved is left in place and reported in Result.Errors, so callers
// get the most complete document possible.
//
// # Command-Line Tool
//
// The refresolve command wraps the library:
//
//	refresolve resolve openapi.yaml
//	refresolve resolve --pointer /components/schemas/Pet --format yaml openapi.yaml
//	refresolve refs openapi.yaml
//	refresolve mcp
//
// refresolve mcp serves the resolve, list_refs and ref_origin tools over
// the Model Context Protocol on stdio. The server is configured through
// REFRESOLVER_* environment variables.
package refresolver
