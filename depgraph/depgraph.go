// Package depgraph implements a directed dependency graph with per-node
// payloads.
//
// An edge from A to B means "A depends on B". Graphs built with
// WithCircular(true) tolerate cycles: traversals skip nodes already on the
// current path instead of failing. All methods are safe for concurrent use.
package depgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNodeNotFound is returned when an operation names an unknown node.
var ErrNodeNotFound = errors.New("depgraph: node not found")

// CycleError reports a dependency cycle in a graph that does not allow one.
// Path lists the nodes of the cycle, starting and ending with the same id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "depgraph: dependency cycle: " + strings.Join(e.Path, " -> ")
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// Option configures a Graph.
type Option func(*options)

type options struct {
	circular bool
}

// WithCircular allows cycles. Default false.
func WithCircular(circular bool) Option {
	return func(o *options) { o.circular = circular }
}

// Graph is a dependency graph whose nodes carry a payload of type T.
type Graph[T any] struct {
	mu       sync.RWMutex
	circular bool
	order    []string
	data     map[string]T
	out      map[string][]string // node -> dependencies
	in       map[string][]string // node -> dependants
}

// New creates an empty graph.
func New[T any](opts ...Option) *Graph[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[T]{
		circular: o.circular,
		data:     make(map[string]T),
		out:      make(map[string][]string),
		in:       make(map[string][]string),
	}
}

// Circular reports whether the graph tolerates cycles.
func (g *Graph[T]) Circular() bool { return g.circular }

// AddNode adds id with its payload. Adding an existing node is a no-op and
// keeps the stored payload.
func (g *Graph[T]) AddNode(id string, data T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[id]; ok {
		return
	}
	g.data[id] = data
	g.order = append(g.order, id)
}

// HasNode reports whether id is in the graph.
func (g *Graph[T]) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.data[id]
	return ok
}

// RemoveNode deletes id and every edge touching it.
func (g *Graph[T]) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[id]; !ok {
		return
	}
	for _, dep := range g.out[id] {
		g.in[dep] = without(g.in[dep], id)
	}
	for _, dependant := range g.in[id] {
		g.out[dependant] = without(g.out[dependant], id)
	}
	delete(g.data, id)
	delete(g.out, id)
	delete(g.in, id)
	g.order = without(g.order, id)
}

// Size returns the number of nodes.
func (g *Graph[T]) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.data)
}

// Nodes returns node ids in insertion order.
func (g *Graph[T]) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// NodeData returns the payload of id.
func (g *Graph[T]) NodeData(id string) (T, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	data, ok := g.data[id]
	if !ok {
		var zero T
		return zero, notFound(id)
	}
	return data, nil
}

// SetNodeData replaces the payload of id.
func (g *Graph[T]) SetNodeData(id string, data T) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[id]; !ok {
		return notFound(id)
	}
	g.data[id] = data
	return nil
}

// AddDependency records that from depends on to. Both nodes must exist.
// Duplicate edges are ignored. A self edge is accepted only by circular
// graphs.
func (g *Graph[T]) AddDependency(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.data[from]; !ok {
		return notFound(from)
	}
	if _, ok := g.data[to]; !ok {
		return notFound(to)
	}
	if from == to && !g.circular {
		return &CycleError{Path: []string{from, to}}
	}
	if slices.Contains(g.out[from], to) {
		return nil
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return nil
}

// RemoveDependency deletes the edge from -> to if present.
func (g *Graph[T]) RemoveDependency(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out[from] = without(g.out[from], to)
	g.in[to] = without(g.in[to], from)
}

// DirectDependenciesOf returns the nodes id depends on directly.
func (g *Graph[T]) DirectDependenciesOf(id string) ([]string, error) {
	return g.direct(id, g.out)
}

// DirectDependantsOf returns the nodes that depend directly on id.
func (g *Graph[T]) DirectDependantsOf(id string) ([]string, error) {
	return g.direct(id, g.in)
}

func (g *Graph[T]) direct(id string, edges map[string][]string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.data[id]; !ok {
		return nil, notFound(id)
	}
	return append([]string(nil), edges[id]...), nil
}

// DependenciesOf returns every node id depends on, transitively. Each node
// appears after its own dependencies. id itself is never included.
func (g *Graph[T]) DependenciesOf(id string) ([]string, error) {
	return g.transitive(id, g.out)
}

// DependantsOf returns every node that depends on id, transitively, the
// most distant dependants first. id itself is never included.
func (g *Graph[T]) DependantsOf(id string) ([]string, error) {
	return g.transitive(id, g.in)
}

func (g *Graph[T]) transitive(id string, edges map[string][]string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.data[id]; !ok {
		return nil, notFound(id)
	}
	w := g.newWalk(edges)
	if err := w.visit(id); err != nil {
		return nil, err
	}
	return without(w.result, id), nil
}

// EntryNodes returns nodes nothing depends on, in insertion order.
func (g *Graph[T]) EntryNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var entries []string
	for _, id := range g.order {
		if len(g.in[id]) == 0 {
			entries = append(entries, id)
		}
	}
	return entries
}

// OverallOrder returns every node such that dependencies come before their
// dependants. With leavesOnly, only nodes without dependencies are
// returned. In circular graphs the nodes of a cycle are ordered by discovery.
func (g *Graph[T]) OverallOrder(leavesOnly bool) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w := g.newWalk(g.out)
	for _, id := range g.order {
		if err := w.visit(id); err != nil {
			return nil, err
		}
	}
	if !leavesOnly {
		return w.result, nil
	}
	leaves := make([]string, 0, len(w.result))
	for _, id := range w.result {
		if len(g.out[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves, nil
}

// walk is a post-order depth-first traversal. Callers hold g.mu.
type walk struct {
	edges    map[string][]string
	circular bool
	states   map[string]visitState
	stack    []string
	result   []string
}

func (g *Graph[T]) newWalk(edges map[string][]string) *walk {
	return &walk{
		edges:    edges,
		circular: g.circular,
		states:   make(map[string]visitState),
	}
}

func (w *walk) visit(id string) error {
	switch w.states[id] {
	case stateDone:
		return nil
	case stateVisiting:
		if w.circular {
			return nil
		}
		return &CycleError{Path: w.cyclePath(id)}
	}
	w.states[id] = stateVisiting
	w.stack = append(w.stack, id)
	for _, next := range w.edges[id] {
		if err := w.visit(next); err != nil {
			return err
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.states[id] = stateDone
	w.result = append(w.result, id)
	return nil
}

func (w *walk) cyclePath(id string) []string {
	for i, s := range w.stack {
		if s == id {
			path := append([]string(nil), w.stack[i:]...)
			return append(path, id)
		}
	}
	return []string{id, id}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
}

func without(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}
