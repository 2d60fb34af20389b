package resolver

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/erraggy/refresolver/depgraph"
	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/internal/pathutil"
	"github.com/erraggy/refresolver/pointer"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

// internalRef is a same-document reference found by the crawler.
type internalRef struct {
	from    []string
	to      []string
	fromPtr string
	toPtr   string
}

// lookupTask is an external reference scheduled for resolution.
type lookupTask struct {
	ref          *uri.URI
	value        any
	path         []string
	pointerStack []string
}

// crawler walks a runner's document once, recording internal references
// in a pointer graph and scheduling external ones.
type crawler struct {
	ctx    context.Context
	runner *Runner
	errors []*referrors.ResolveError

	// pointerGraph has an edge dependant -> target for every internal
	// reference.
	pointerGraph *depgraph.Graph[struct{}]
	// stemGraph has an edge T -> X when target T holds, at or below it, a
	// reference to X.
	stemGraph *depgraph.Graph[struct{}]
	// orderGraph extends pointerGraph with containment edges and fixes the
	// order substitutions are replayed in.
	orderGraph *depgraph.Graph[struct{}]

	refs        []internalRef
	targets     map[string][]string
	targetOrder []string
	tasks       []*lookupTask

	crawled map[string]bool
	roots   [][]string
}

func newCrawler(ctx context.Context, r *Runner) *crawler {
	return &crawler{
		ctx:          ctx,
		runner:       r,
		pointerGraph: depgraph.New[struct{}](depgraph.WithCircular(true)),
		stemGraph:    depgraph.New[struct{}](depgraph.WithCircular(true)),
		orderGraph:   depgraph.New[struct{}](depgraph.WithCircular(true)),
		targets:      map[string][]string{},
		crawled:      map[string]bool{},
	}
}

// crawl walks the subtree at path and every internal target reachable
// from it, then derives the stem and order graphs.
func (c *crawler) crawl(node any, path []string) {
	c.crawlRoot("", node, path, nil)
	c.buildStemGraph()
	c.buildOrderGraph()
}

func (c *crawler) crawlRoot(key string, node any, path []string, pointerStack []string) {
	c.crawled[pointer.Format(path)] = true
	c.roots = append(c.roots, path)

	b := pathutil.Get()
	defer pathutil.Put(b)
	for _, seg := range path {
		b.Push(seg)
	}
	c.walk(key, node, b, pointerStack)
}

func (c *crawler) walk(key string, node any, path *pathutil.PathBuilder, pointerStack []string) {
	ref, err := c.runner.ComputeRef(c.ctx, RefSite{
		Key:          key,
		Value:        node,
		Pointer:      path.Pointer(),
		PointerStack: pointerStack,
	})
	if err != nil {
		c.errors = append(c.errors, c.runner.newError(referrors.CodeParseURI, err.Error(), path.Segments(), c.runner.BaseURI.String(), pointerStack, err))
		return
	}
	if ref != nil {
		c.handleRef(ref, node, path.Segments(), pointerStack)
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
			path.Push(k)
			if !c.isCrawledRoot(path) {
				c.walk(k, v[k], path, pointerStack)
			}
			path.Pop()
		}
	case []any:
		for i, item := range v {
			path.PushIndex(i)
			if !c.isCrawledRoot(path) {
				c.walk(fmt.Sprint(i), item, path, pointerStack)
			}
			path.Pop()
		}
	}
}

// isCrawledRoot reports whether path starts a subtree that was crawled on
// its own already.
func (c *crawler) isCrawledRoot(path *pathutil.PathBuilder) bool {
	return len(c.roots) > 1 && c.crawled[path.Pointer()]
}

// covered reports whether path lies inside an already crawled subtree.
func (c *crawler) covered(path []string) bool {
	for _, root := range c.roots {
		if pointer.HasPrefix(path, root) {
			return true
		}
	}
	return false
}

func (c *crawler) handleRef(ref *uri.URI, value any, loc []string, pointerStack []string) {
	r := c.runner
	if !ref.IsFragmentOnly() && !ref.SameDocument(r.BaseURI) {
		if r.session.cfg.dereferenceRemote {
			c.tasks = append(c.tasks, &lookupTask{
				ref:          ref,
				value:        value,
				path:         loc,
				pointerStack: slices.Clone(pointerStack),
			})
		}
		return
	}

	fragment := ref.Fragment()
	target, err := pointer.Parse(fragment)
	if err != nil {
		c.errors = append(c.errors, r.newError(referrors.CodeParsePointer,
			fmt.Sprintf("'#%s' JSON pointer is invalid", fragment), loc, r.BaseURI.String(), pointerStack, err))
		return
	}
	// "#/" names the whole document, like "#".
	if pointer.IsRoot("#" + fragment) {
		target = []string{}
	}
	if pointer.HasPrefix(loc, target) {
		r.log.Debug("skipping self-referencing pointer", "pointer", pointer.Format(loc), "target", pointer.Format(target))
		return
	}

	from, to := pointer.Format(loc), pointer.Format(target)
	c.pointerGraph.AddNode(from, struct{}{})
	c.pointerGraph.AddNode(to, struct{}{})
	_ = c.pointerGraph.AddDependency(from, to)
	c.refs = append(c.refs, internalRef{from: loc, to: target, fromPtr: from, toPtr: to})
	if _, seen := c.targets[to]; !seen {
		c.targets[to] = target
		c.targetOrder = append(c.targetOrder, to)
	}

	if !r.dereferenceInline {
		return
	}
	c.follow(target, append(slices.Clone(pointerStack), to))
}

// follow crawls an internal target that is not covered yet. A target that
// sits below an unresolved reference is reached by crawling that
// reference instead.
func (c *crawler) follow(target []string, pointerStack []string) {
	if c.covered(target) {
		return
	}
	src := c.runner.source
	if v, ok := document.Get(src, target); ok {
		c.crawlRoot(lastSegment(target), v, target, pointerStack)
		return
	}
	for i := len(target) - 1; i > 0; i-- {
		prefix := target[:i]
		v, ok := document.Get(src, prefix)
		if !ok {
			continue
		}
		if c.covered(prefix) {
			return
		}
		if _, isRef := c.runner.session.cfg.extractor.Extract(lastSegment(prefix), v); isRef {
			c.crawlRoot(lastSegment(prefix), v, prefix, pointerStack)
		}
		return
	}
}

func (c *crawler) buildStemGraph() {
	for _, to := range c.targetOrder {
		c.stemGraph.AddNode(to, struct{}{})
	}
	for _, ref := range c.refs {
		for _, to := range c.targetOrder {
			if pointer.HasPrefix(ref.from, c.targets[to]) {
				_ = c.stemGraph.AddDependency(to, ref.toPtr)
			}
		}
	}
}

func (c *crawler) buildOrderGraph() {
	for _, id := range c.pointerGraph.Nodes() {
		c.orderGraph.AddNode(id, struct{}{})
	}
	for _, ref := range c.refs {
		_ = c.orderGraph.AddDependency(ref.fromPtr, ref.toPtr)
	}
	for _, to := range c.targetOrder {
		target := c.targets[to]
		for _, ref := range c.refs {
			switch {
			case len(ref.from) > len(target) && pointer.HasPrefix(ref.from, target):
				// a target is copied only after the references inside it
				_ = c.orderGraph.AddDependency(to, ref.fromPtr)
			case len(target) > len(ref.from) && pointer.HasPrefix(target, ref.from):
				// a target below a reference exists only once that reference is replaced
				_ = c.orderGraph.AddDependency(to, ref.fromPtr)
			}
		}
	}
}

// stems returns the target and every target it transitively holds a
// reference to.
func (c *crawler) stems(to string) [][]string {
	stems := [][]string{c.targets[to]}
	deps, err := c.stemGraph.DependenciesOf(to)
	if err != nil {
		return stems
	}
	for _, d := range deps {
		stems = append(stems, c.targets[d])
	}
	return stems
}

func lastSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
