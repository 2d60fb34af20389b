// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes refresolver capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/erraggy/refresolver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `refresolver MCP server: dereferences JSON References ($ref) in JSON and YAML documents, lists references, and traces resolved values back to the document they came from.

Configuration: All defaults are configurable via REFRESOLVER_* environment variables set in your MCP client config. The Go MCP SDK does not support initializationOptions; use env vars instead.

Key settings:
- REFRESOLVER_ALLOW_HTTP (default: true): allow fetching http(s) documents
- REFRESOLVER_ALLOW_PRIVATE_IPS (default: false): allow URLs that resolve to private or loopback addresses
- REFRESOLVER_HTTP_TIMEOUT (default: 30s): timeout for each HTTP fetch
- REFRESOLVER_MAX_FILE_SIZE (default: 10MiB): largest document that is read
- REFRESOLVER_MAX_URI_DEPTH (default: 100): longest chain of external documents
- REFRESOLVER_CACHE_TTL (default: 5m): how long fetched external documents stay cached
- REFRESOLVER_MAX_INLINE_SIZE (default: 10MiB): largest inline content accepted
- REFRESOLVER_LIST_LIMIT (default: 100): default result limit for list_refs

Resolution is partial-failure tolerant: a reference that cannot be resolved keeps its original value and is reported in errors with a code (PARSE_POINTER, POINTER_MISSING, RESOLVE_URI, PARSE_URI, RESOLVE_POINTER, TRANSFORM_DEREFERENCED).`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "refresolver", Version: refresolver.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Dereference every $ref in a JSON or YAML document. Internal references (#/...) are replaced by their targets; external references (relative files or http(s) URLs) are fetched and resolved recursively. Returns the resolved document, a ref_map from each replaced location to where it came from, and any resolution errors. Use pointer to resolve a single subtree, no_remote to keep external references, and output to write the document to a file instead of returning it inline.",
	}, handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_refs",
		Description: "List the $ref occurrences in a JSON or YAML document without resolving them. Each entry has the location, the reference as written, the absolutized target, and whether it points to another document. Filter by kind (internal or external) or target (supports * glob). Use group_by (target or kind) to get counts instead of individual items.",
	}, handleListRefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ref_origin",
		Description: "Resolve a document and report where the value at a JSON Pointer of the resolved document came from: the supplying document and the pointer inside it. Useful for mapping diagnostics on a resolved document back to the file that must be edited.",
	}, handleRefOrigin)
}

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to cfg.ListLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = cfg.ListLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return sanitizeText(err.Error())
}

func sanitizeText(s string) string {
	return pathPattern.ReplaceAllString(s, "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

// groupCount represents a single group in group_by results.
type groupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// groupAndSort groups items by key, sorts by count descending (ties
// broken alphabetically by key), and returns the sorted groups.
func groupAndSort[T any](items []T, keyFn func(T) []string) []groupCount {
	counts := make(map[string]int)
	for _, item := range items {
		for _, key := range keyFn(item) {
			counts[key]++
		}
	}
	groups := make([]groupCount, 0, len(counts))
	for key, count := range counts {
		groups = append(groups, groupCount{Key: key, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// validateGroupBy checks that group_by is a valid value.
func validateGroupBy(groupBy string, allowed []string) error {
	if groupBy == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(groupBy, a) {
			return nil
		}
	}
	return fmt.Errorf("invalid group_by value %q; valid values: %s", groupBy, strings.Join(allowed, ", "))
}

// validateGlobPattern checks whether a glob pattern is syntactically valid.
// Call this once before a filter loop so matchRefGlob never encounters
// an invalid pattern at match time.
func validateGlobPattern(pattern string) error {
	if pattern == "" || !strings.ContainsAny(pattern, "*?[") {
		return nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return nil
}
