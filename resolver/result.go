package resolver

import (
	"github.com/erraggy/refresolver/depgraph"
	"github.com/erraggy/refresolver/pointer"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

// Result is the outcome of resolving a document.
type Result struct {
	// Result is the dereferenced value at the requested pointer.
	Result any `json:"result" yaml:"result"`
	// RefMap maps each substituted location (a JSON Pointer into the
	// document) to what it was resolved from: a JSON Pointer for internal
	// references, an authority with fragment for external ones.
	RefMap map[string]string `json:"refMap" yaml:"refMap"`
	// Graph is the document graph of the session.
	Graph *depgraph.Graph[*NodeData] `json:"-" yaml:"-"`
	// Errors lists every resolution failure, in discovery order.
	Errors []*referrors.ResolveError `json:"errors,omitempty" yaml:"errors,omitempty"`
	// Warnings lists non-fatal problems of the substitution pass.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Runner is the runner that produced the result.
	Runner *Runner `json:"-" yaml:"-"`

	external map[string]bool
	absent   bool
}

func newResult(r *Runner, value any) *Result {
	return &Result{
		Result:   value,
		RefMap:   map[string]string{},
		Graph:    r.session.Graph,
		Runner:   r,
		external: map[string]bool{},
	}
}

// HasErrors reports whether any resolution error was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Origin maps a path in the resolved document to where its value came
// from: the authority of the supplying document and the path inside it.
// The longest substituted prefix of path wins, and internal substitutions
// are followed until an external one or an unsubstituted path is reached.
// When no prefix was substituted, ok is false and the runner's own
// authority is returned with path unchanged.
func (r *Result) Origin(path []string) (authority string, remaining []string, ok bool) {
	base := ""
	if r.Runner != nil {
		base = r.Runner.BaseURI.String()
	}
	for hops := 0; hops <= len(r.RefMap); hops++ {
		key, target, found := r.longestMapped(path)
		if !found {
			return base, path, ok
		}
		rest := path[len(pointer.MustParse(key)):]
		if r.external[key] {
			ref, err := uri.Parse(target)
			if err != nil {
				return target, rest, true
			}
			targetPath, err := pointer.Parse(ref.Fragment())
			if err != nil {
				return ref.CacheKey(), rest, true
			}
			return ref.CacheKey(), join(targetPath, rest), true
		}
		targetPath, err := pointer.Parse(target)
		if err != nil {
			return base, path, ok
		}
		path = join(targetPath, rest)
		ok = true
	}
	// internal substitutions form a cycle
	return base, path, ok
}

func (r *Result) longestMapped(path []string) (key, target string, found bool) {
	for i := len(path); i >= 0; i-- {
		key = pointer.Format(path[:i])
		if target, found = r.RefMap[key]; found {
			return key, target, true
		}
	}
	return "", "", false
}

func join(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
