package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/internal/pathutil"
)

// RefInfo describes one reference found in a document.
type RefInfo struct {
	// Pointer is the location of the reference node.
	Pointer string `json:"pointer" yaml:"pointer"`
	// Ref is the reference as written in the document.
	Ref string `json:"ref" yaml:"ref"`
	// Target is the reference after absolutizing and transformation.
	Target string `json:"target" yaml:"target"`
	// External reports whether the reference points to another document.
	External bool `json:"external" yaml:"external"`
	// Error is set when the reference could not be computed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Refs lists every reference in source, in document order, without
// resolving any of them.
func (r *Resolver) Refs(ctx context.Context, source any, opts ...Option) ([]RefInfo, error) {
	cfg, err := r.callConfig(opts)
	if err != nil {
		return nil, err
	}
	base, err := parseBase(cfg.baseURI)
	if err != nil {
		return nil, err
	}
	runner := newSession(cfg).newRunner(document.Normalize(source), base, 0, []string{})

	var refs []RefInfo
	b := pathutil.Get()
	defer pathutil.Put(b)

	var walk func(key string, node any)
	walk = func(key string, node any) {
		site := RefSite{Key: key, Value: node, Pointer: b.Pointer(), PointerStack: []string{}}
		raw, _ := cfg.extractor.Extract(key, node)
		ref, err := runner.ComputeRef(ctx, site)
		switch {
		case err != nil:
			refs = append(refs, RefInfo{Pointer: site.Pointer, Ref: raw, Error: err.Error()})
			return
		case ref != nil:
			refs = append(refs, RefInfo{
				Pointer:  site.Pointer,
				Ref:      raw,
				Target:   ref.String(),
				External: !ref.IsFragmentOnly() && !ref.SameDocument(runner.BaseURI),
			})
			return
		}
		switch v := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b.Push(k)
				walk(k, v[k])
				b.Pop()
			}
		case []any:
			for i, item := range v {
				b.PushIndex(i)
				walk(fmt.Sprint(i), item)
				b.Pop()
			}
		}
	}
	walk("", runner.Source())
	return refs, nil
}
