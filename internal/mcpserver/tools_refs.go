package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/erraggy/refresolver/resolver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type listRefsInput struct {
	Doc     docInput `json:"doc"                jsonschema:"The document to inspect"`
	Kind    string   `json:"kind,omitempty"     jsonschema:"Filter by kind: internal or external"`
	Target  string   `json:"target,omitempty"   jsonschema:"Filter by target (supports * and ? glob, e.g. *schemas/Pet or *common.yaml*)"`
	GroupBy string   `json:"group_by,omitempty" jsonschema:"Group results and return counts instead of individual items. Values: target, kind"`
	Limit   int      `json:"limit,omitempty"    jsonschema:"Maximum number of results to return (default 100)"`
	Offset  int      `json:"offset,omitempty"   jsonschema:"Skip the first N results (for pagination)"`
}

// listRefsOutput holds results from list_refs. External and Internal count
// all references in the document, before filtering.
type listRefsOutput struct {
	Total    int                `json:"total"`
	External int                `json:"external"`
	Internal int                `json:"internal"`
	Matched  int                `json:"matched"`
	Returned int                `json:"returned"`
	Refs     []resolver.RefInfo `json:"refs,omitempty"`
	Groups   []groupCount       `json:"groups,omitempty"`
}

func handleListRefs(ctx context.Context, _ *mcp.CallToolRequest, input listRefsInput) (*mcp.CallToolResult, listRefsOutput, error) {
	// Validate filters before loading the document.
	if err := validateGlobPattern(input.Target); err != nil {
		return errResult(err), listRefsOutput{}, nil
	}
	if err := validateGroupBy(input.GroupBy, []string{"target", "kind"}); err != nil {
		return errResult(err), listRefsOutput{}, nil
	}
	kind := strings.ToLower(input.Kind)
	if kind != "" && kind != "internal" && kind != "external" {
		return errResult(fmt.Errorf("invalid kind %q; valid values: internal, external", input.Kind)), listRefsOutput{}, nil
	}

	refs, err := input.Doc.refs(ctx)
	if err != nil {
		return errResult(err), listRefsOutput{}, nil
	}

	output := listRefsOutput{Total: len(refs)}
	filtered := makeSlice[resolver.RefInfo](len(refs))
	for _, ref := range refs {
		if ref.External {
			output.External++
		} else {
			output.Internal++
		}
		if kind != "" && refKind(ref) != kind {
			continue
		}
		if input.Target != "" && !matchRefGlob(ref.Target, input.Target) {
			continue
		}
		ref.Target = sanitizeText(ref.Target)
		filtered = append(filtered, ref)
	}
	output.Matched = len(filtered)

	switch strings.ToLower(input.GroupBy) {
	case "target":
		output.Groups = paginate(groupAndSort(filtered, func(ref resolver.RefInfo) []string {
			return []string{ref.Target}
		}), input.Offset, input.Limit)
		output.Returned = len(output.Groups)
	case "kind":
		output.Groups = groupAndSort(filtered, func(ref resolver.RefInfo) []string {
			return []string{refKind(ref)}
		})
		output.Returned = len(output.Groups)
	default:
		output.Refs = paginate(filtered, input.Offset, input.Limit)
		output.Returned = len(output.Refs)
	}

	return nil, output, nil
}

func refKind(ref resolver.RefInfo) string {
	if ref.External {
		return "external"
	}
	return "internal"
}

// matchRefGlob matches a reference target against a glob pattern. Unlike
// filepath.Match alone, * and ? match across / separators in targets like
// "#/components/schemas/Pet". It does this by replacing / with a
// non-separator character before calling filepath.Match.
func matchRefGlob(ref, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return strings.EqualFold(ref, pattern)
	}
	// Replace / with : so filepath.Match's * can cross path boundaries.
	normalizedRef := strings.ReplaceAll(strings.ToLower(ref), "/", ":")
	normalizedPattern := strings.ReplaceAll(strings.ToLower(pattern), "/", ":")
	matched, err := filepath.Match(normalizedPattern, normalizedRef)
	return err == nil && matched
}
