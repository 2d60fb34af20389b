package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/erraggy/refresolver/document"
	"github.com/erraggy/refresolver/pointer"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/scheme"
	"github.com/erraggy/refresolver/uri"
	"golang.org/x/sync/errgroup"
)

// Runner resolves the references of one document. The root runner owns
// the caller's document; every external reference is resolved by a child
// runner over the fetched document, one level deeper.
type Runner struct {
	// ID is unique within the session.
	ID int64
	// Depth is 0 for the root runner.
	Depth int
	// BaseURI is the authority of the document; relative references are
	// joined against it. It may be empty.
	BaseURI *uri.URI
	// Root is the runner's node id in the session graph: BaseURI, or
	// "root" when BaseURI is empty.
	Root string
	// URIStack lists the authorities being resolved on the way to this
	// runner, excluding the root runner's.
	URIStack []string

	session           *Session
	original          any
	source            any
	dereferenceInline bool
	log               Logger
}

// RunOptions scope a Runner.Resolve call.
type RunOptions struct {
	// JSONPointer selects the subtree to resolve; empty means the whole
	// document.
	JSONPointer string
	// ParentPath is the location of the reference that led to this
	// runner, in the referencing document.
	ParentPath []string
}

// lookupResult is the outcome of one lookupTask.
type lookupResult struct {
	task     *lookupTask
	err      *referrors.ResolveError
	resolved *Result
}

// Source returns the runner's current document snapshot.
func (r *Runner) Source() any {
	return r.source
}

// AtMaxURIDepth reports whether the authority chain has reached its limit.
func (r *Runner) AtMaxURIDepth() bool {
	return len(r.URIStack) >= r.session.cfg.maxURIDepth
}

// ComputeRef returns the reference held by the node described by site,
// absolutized against the runner's authority, or nil when the node is not
// a reference.
func (r *Runner) ComputeRef(ctx context.Context, site RefSite) (*uri.URI, error) {
	cfg := r.session.cfg
	refStr, ok := cfg.extractor.Extract(site.Key, site.Value)
	if !ok {
		return nil, nil
	}
	ref, err := uri.Parse(refStr)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid reference: %w", refStr, err)
	}
	if !strings.HasPrefix(refStr, "#") {
		ref = r.absolutize(ref)
	}
	if cfg.refTransform != nil {
		ref, err = cfg.refTransform(ctx, RefTransformInput{RefSite: site, Ref: ref, BaseURI: r.BaseURI})
		if err != nil {
			return nil, fmt.Errorf("could not transform reference '%s': %w", refStr, err)
		}
	}
	return ref, nil
}

// absolutize joins relative file references against the directory of the
// runner's authority and resolves host-less HTTP references against it.
// Relative references in a document without authority are left as they
// are and fail when looked up.
func (r *Runner) absolutize(ref *uri.URI) *uri.URI {
	base := r.BaseURI
	switch {
	case r.isFile(ref):
		if !ref.IsAbsolute() && base.Path() != "" {
			return base.JoinPath(ref)
		}
		return ref.FSPath()
	case ref.IsHTTP() || (ref.Scheme() == "" && base.IsHTTP()):
		if base.Host() != "" && ref.Host() == "" {
			return base.ResolveReference(ref)
		}
	case ref.Scheme() == "" && base.Scheme() != "":
		return base.ResolveReference(ref)
	}
	return ref
}

// isFile reports whether ref names a local file: a "file" URI, a rooted
// path, a reference whose scheme has no registered resolver, or a
// scheme-less path in a document that is itself a file or has no
// authority.
func (r *Runner) isFile(ref *uri.URI) bool {
	switch name := ref.Scheme(); name {
	case uri.SchemeFile:
		return true
	case "":
		if strings.HasPrefix(ref.Path(), "/") {
			return true
		}
		base := r.BaseURI.Scheme()
		return base == "" || base == uri.SchemeFile || !r.registered(base)
	default:
		return !r.registered(name)
	}
}

func (r *Runner) registered(name string) bool {
	_, ok := r.session.cfg.resolvers.Lookup(name)
	return ok
}

// schemeFor names the resolver that fetches ref.
func (r *Runner) schemeFor(ref *uri.URI) string {
	if r.isFile(ref) {
		return uri.SchemeFile
	}
	return ref.Scheme()
}

// Resolve dereferences the runner's document, or the subtree at
// opts.JSONPointer. Failures are recorded in the result, never returned.
func (r *Runner) Resolve(ctx context.Context, opts RunOptions) *Result {
	res := newResult(r, r.source)

	var targetPath []string
	jsonPointer := strings.TrimSpace(opts.JSONPointer)
	if !pointer.IsRoot(jsonPointer) && jsonPointer != "/" {
		p, err := pointer.Parse(jsonPointer)
		if err != nil {
			res.Errors = append(res.Errors, r.newError(referrors.CodeParsePointer,
				fmt.Sprintf("'%s' JSON pointer is invalid", jsonPointer), []string{}, r.BaseURI.String(), nil, err))
			return res
		}
		targetPath = p
	}

	target, ok := document.Get(r.source, targetPath)
	if !ok {
		res.Result = nil
		res.absent = true
		res.Errors = append(res.Errors, r.newError(referrors.CodePointerMissing,
			fmt.Sprintf("'%s' does not exist @ '%s'", jsonPointer, r.BaseURI), targetPath, r.BaseURI.String(), nil, nil))
		return res
	}

	c := newCrawler(ctx, r)
	c.crawl(target, targetPath)
	res.Errors = append(res.Errors, c.errors...)

	r.mergeExternal(res, r.lookupAll(ctx, c.tasks))

	if document.IsContainer(r.source) {
		if r.dereferenceInline {
			r.replay(res, c)
		}
		res.Result, _ = document.Get(r.source, targetPath)
	} else {
		res.Result = r.source
	}

	if hook := r.session.cfg.dereferenceTransform; hook != nil {
		r.transformResult(ctx, hook, res, jsonPointer, targetPath, opts.ParentPath)
	}

	r.session.setNodeData(r.Root, r.source)
	return res
}

// lookupAll resolves every task concurrently. Results keep task order.
func (r *Runner) lookupAll(ctx context.Context, tasks []*lookupTask) []*lookupResult {
	results := make([]*lookupResult, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = r.lookupAndResolve(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// mergeExternal splices external results into a new snapshot of the
// source, in discovery order.
func (r *Runner) mergeExternal(res *Result, results []*lookupResult) {
	for _, lr := range results {
		loc := pointer.Format(lr.task.path)
		target := lr.task.ref.String()
		res.RefMap[loc] = target
		res.external[loc] = true
		r.session.setNodeEdge(r.Root, loc, target)

		if lr.err != nil {
			res.Errors = append(res.Errors, lr.err)
		}
		if lr.resolved == nil {
			continue
		}
		res.Errors = append(res.Errors, lr.resolved.Errors...)
		res.Warnings = append(res.Warnings, lr.resolved.Warnings...)
		if lr.resolved.absent {
			continue
		}

		next, err := document.Set(r.source, lr.task.path, lr.resolved.Result)
		if err != nil {
			res.Errors = append(res.Errors, r.newError(referrors.CodeResolvePointer,
				fmt.Sprintf("could not apply '%s' at '%s'", target, loc), lr.task.path, target, lr.task.pointerStack, err))
			continue
		}
		r.source = next
	}
}

// lookupAndResolve fetches the authority of t and resolves its fragment
// with a child runner.
func (r *Runner) lookupAndResolve(ctx context.Context, t *lookupTask) *lookupResult {
	lr := &lookupResult{task: t}
	key := t.ref.CacheKey()

	if slices.Contains(r.URIStack, key) {
		r.log.Debug("authority already being resolved, keeping reference", "ref", t.ref.String())
		lr.resolved = &Result{Result: t.value}
		return lr
	}

	stack := r.URIStack
	if r.Depth != 0 && !r.BaseURI.IsEmpty() {
		stack = append(slices.Clone(r.URIStack), r.BaseURI.CacheKey())
	}

	var fetchErr error
	var doc any
	switch {
	case r.BaseURI.IsEmpty() && t.ref.Scheme() == "" && !t.ref.IsAbsolute():
		fetchErr = fmt.Errorf("cannot resolve relative reference at '%s' in a document without authority", pointer.Format(t.path))
	case r.AtMaxURIDepth():
		fetchErr = fmt.Errorf("max uri depth (%d) reached, halting: this is probably a circular loop", len(r.URIStack))
	case r.BaseURI.IsHTTP() && r.schemeFor(t.ref) == uri.SchemeFile:
		fetchErr = fmt.Errorf("refusing to read local file '%s' from remote document '%s'", t.ref.WithoutFragment(), r.BaseURI)
	default:
		doc, fetchErr = r.fetch(ctx, t)
	}
	if fetchErr != nil {
		lr.err = r.newError(referrors.CodeResolveURI, fetchErr.Error(), t.path, t.ref.String(), t.pointerStack, fetchErr)
		return lr
	}

	child := r.session.newRunner(doc, t.ref, r.Depth+1, stack)
	_ = r.session.Graph.AddDependency(r.Root, child.Root)
	r.log.Debug("resolving external reference", "ref", t.ref.String(), "path", pointer.Format(t.path), "child", child.ID)

	fragment := t.ref.Fragment()
	resolved := child.Resolve(ctx, RunOptions{JSONPointer: fragment, ParentPath: t.path})
	if resolved.absent || r.missingAtFragment(resolved, fragment) {
		resolved.Result = t.value
		resolved.absent = false
	}
	lr.resolved = resolved
	return lr
}

// missingAtFragment reports whether a child could not supply the value at
// fragment: the pointer itself is missing, or the value there is a
// reference whose target is missing.
func (r *Runner) missingAtFragment(res *Result, fragment string) bool {
	fragPath, err := pointer.Parse(fragment)
	if err != nil {
		return false
	}
	missing := false
	for _, e := range res.Errors {
		if e.Code != referrors.CodePointerMissing {
			continue
		}
		if slices.Equal(e.Path, fragPath) {
			return true
		}
		missing = true
	}
	if !missing {
		return false
	}
	_, isRef := r.session.cfg.extractor.Extract(lastSegment(fragPath), res.Result)
	return isRef
}

// fetch loads the document of t's authority once per cache lifetime. The
// session root's authority is served from its original source.
func (r *Runner) fetch(ctx context.Context, t *lookupTask) (any, error) {
	s := r.session
	key := t.ref.CacheKey()

	if root, ok := s.rootFor(key); ok {
		return root.original, nil
	}
	if v, ok := s.Cache.Get(fetchKeyPrefix + key); ok {
		return v, nil
	}

	v, err, _ := s.cfg.fetches.Do(key, func() (any, error) {
		if v, ok := s.Cache.Get(fetchKeyPrefix + key); ok {
			return v, nil
		}
		name := r.schemeFor(t.ref)
		if !r.registered(name) {
			if own := t.ref.Scheme(); own != "" {
				name = own
			}
			return nil, fmt.Errorf("no resolver defined for scheme '%s' in ref %s: %w", name, t.ref, scheme.ErrUnknownScheme)
		}
		target := t.ref.WithoutFragment()
		doc, err := s.cfg.resolvers.Fetch(ctx, name, target)
		if err != nil {
			return nil, err
		}
		if s.cfg.resultParser != nil {
			doc, err = s.cfg.resultParser(ctx, ParseInput{
				Result:          doc,
				TargetAuthority: target,
				ParentAuthority: r.BaseURI,
				ParentPath:      t.path,
				Fragment:        t.ref.Fragment(),
			})
			if err != nil {
				return nil, fmt.Errorf("could not parse remote reference response for '%s': %w", target, err)
			}
		}
		doc = document.Normalize(doc)
		s.Cache.Set(fetchKeyPrefix+key, doc)
		return doc, nil
	})
	return v, err
}

// replay splices internal reference targets into their dependants, in
// dependency order. Substitutions that would copy a value into itself are
// skipped. Graph failures are reported as warnings.
func (r *Runner) replay(res *Result, c *crawler) {
	order, err := c.orderGraph.OverallOrder(false)
	if err != nil {
		r.warn(res, "could not order internal references", err)
		return
	}
	for _, ptr := range order {
		dependants, err := c.pointerGraph.DirectDependantsOf(ptr)
		if err != nil {
			r.warn(res, "could not read dependants of '"+ptr+"'", err)
			continue
		}
		targetPath, isTarget := c.targets[ptr]
		if !isTarget || len(dependants) == 0 {
			continue
		}
		val, found := document.Get(r.source, targetPath)
		stems := c.stems(ptr)

		for _, dep := range dependants {
			depPath, err := pointer.Parse(dep)
			if err != nil {
				r.warn(res, "invalid dependant pointer '"+dep+"'", err)
				continue
			}
			if insideAny(depPath, stems) {
				r.log.Debug("skipping circular pointer", "pointer", dep, "target", ptr)
				continue
			}

			res.RefMap[dep] = ptr
			r.session.setNodeEdge(r.Root, dep, ptr)

			if !found {
				res.Errors = append(res.Errors, r.newError(referrors.CodePointerMissing,
					fmt.Sprintf("'%s' does not exist (referenced from '%s')", ptr, dep), targetPath, r.BaseURI.String(), nil, nil))
				continue
			}
			next, err := document.Set(r.source, depPath, val)
			if err != nil {
				r.warn(res, "could not substitute '"+dep+"'", err)
				continue
			}
			r.source = next
		}
	}
}

func (r *Runner) transformResult(ctx context.Context, hook DereferenceTransformFunc, res *Result, jsonPointer string, targetPath, parentPath []string) {
	target := uri.MustParse("").WithFragment(jsonPointer)
	if parentPath == nil {
		parentPath = []string{}
	}
	out, err := hook(ctx, TransformInput{
		Source:          r.source,
		Result:          res.Result,
		TargetAuthority: target,
		ParentAuthority: r.BaseURI,
		ParentPath:      parentPath,
		Fragment:        target.Fragment(),
	})
	if out != nil {
		res.Result = out
	}
	if err != nil {
		where := r.BaseURI.String()
		if f := target.Fragment(); f != "" {
			where += "#" + f
		}
		res.Errors = append(res.Errors, r.newError(referrors.CodeTransformDereferenced,
			fmt.Sprintf("could not transform dereferenced result for '%s': %v", where, err), targetPath, target.String(), nil, err))
	}
}

func (r *Runner) warn(res *Result, msg string, err error) {
	res.Warnings = append(res.Warnings, msg+": "+err.Error())
	r.log.Warn(msg, "error", err)
}

func (r *Runner) newError(code referrors.Code, msg string, path []string, authority string, pointerStack []string, cause error) *referrors.ResolveError {
	if path == nil {
		path = []string{}
	}
	if pointerStack == nil {
		pointerStack = []string{}
	}
	stack := r.URIStack
	if stack == nil {
		stack = []string{}
	}
	return &referrors.ResolveError{
		Code:         code,
		Message:      msg,
		Path:         slices.Clone(path),
		URI:          authority,
		URIStack:     slices.Clone(stack),
		PointerStack: slices.Clone(pointerStack),
		Cause:        cause,
	}
}

func insideAny(path []string, stems [][]string) bool {
	for _, stem := range stems {
		if pointer.HasPrefix(path, stem) {
			return true
		}
	}
	return false
}
