package resolver

import (
	"maps"
	"sync"
	"sync/atomic"

	"github.com/erraggy/refresolver/depgraph"
	"github.com/erraggy/refresolver/uri"
	"github.com/google/uuid"
)

// fetchKeyPrefix prefixes fetched documents in the cache.
const fetchKeyPrefix = "fetch:"

// NodeData is the payload of a document node in the session graph.
// Stored values are never modified; updates replace them.
type NodeData struct {
	// RefMap maps reference locations in the document to their targets.
	RefMap map[string]string `json:"refMap" yaml:"refMap"`
	// Data is the last known value of the document.
	Data any `json:"data" yaml:"data"`
}

// Session is the state shared by every runner of one Resolve call.
type Session struct {
	// ID identifies the session in logs.
	ID string
	// Cache is shared with the owning Resolver and outlives the session.
	Cache Cache
	// Graph has one node per document authority; an edge A -> B means A
	// holds a reference resolved from B.
	Graph *depgraph.Graph[*NodeData]

	cfg     *config
	log     Logger
	runners atomic.Int64
	nodeMu  sync.Mutex
	// root is the depth-0 runner when it has an authority.
	root *Runner
}

func newSession(cfg *config) *Session {
	id := uuid.NewString()
	return &Session{
		ID:    id,
		Cache: cfg.cache,
		Graph: depgraph.New[*NodeData](depgraph.WithCircular(true)),
		cfg:   cfg,
		log:   cfg.logger.With("session", id),
	}
}

// NextRunnerID returns a new runner id, unique within the session.
func (s *Session) NextRunnerID() int64 {
	return s.runners.Add(1)
}

// newRunner creates a runner over source and registers its graph node.
// The depth-0 runner is also recorded as the session's root so references
// back to its authority see the caller's document.
func (s *Session) newRunner(source any, base *uri.URI, depth int, stack []string) *Runner {
	if base == nil {
		base = uri.MustParse("")
	}
	base = base.FSPath().WithoutFragment()
	root := base.String()
	if root == "" {
		root = "root"
	}
	r := &Runner{
		ID:                s.NextRunnerID(),
		Depth:             depth,
		BaseURI:           base,
		Root:              root,
		URIStack:          stack,
		session:           s,
		original:          source,
		source:            source,
		dereferenceInline: depth > 0 || s.cfg.dereferenceInline,
	}
	r.log = s.log.With("runner", r.ID, "depth", depth, "authority", root)

	s.Graph.AddNode(root, &NodeData{RefMap: map[string]string{}, Data: source})
	if depth == 0 && !base.IsEmpty() {
		s.root = r
	}
	return r
}

// rootFor returns the depth-0 runner when its authority is key.
func (s *Session) rootFor(key string) (*Runner, bool) {
	if s.root == nil || s.root.BaseURI.CacheKey() != key {
		return nil, false
	}
	return s.root, true
}

func (s *Session) setNodeData(id string, data any) {
	s.nodeMu.Lock()
	defer s.nodeMu.Unlock()
	cur, err := s.Graph.NodeData(id)
	if err != nil {
		return
	}
	next := &NodeData{Data: data}
	if cur != nil {
		next.RefMap = cur.RefMap
	}
	_ = s.Graph.SetNodeData(id, next)
}

func (s *Session) setNodeEdge(id, from, to string) {
	s.nodeMu.Lock()
	defer s.nodeMu.Unlock()
	cur, err := s.Graph.NodeData(id)
	if err != nil {
		return
	}
	next := &NodeData{RefMap: map[string]string{from: to}}
	if cur != nil {
		maps.Copy(next.RefMap, cur.RefMap)
		next.RefMap[from] = to
		next.Data = cur.Data
	}
	_ = s.Graph.SetNodeData(id, next)
}
