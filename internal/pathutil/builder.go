package pathutil

import (
	"strconv"
	"strings"

	"github.com/erraggy/refresolver/pointer"
)

// PathBuilder tracks a location in a document tree.
// Uses push/pop semantics to avoid allocations during traversal.
// The pointer string is only materialized when Pointer() is called.
type PathBuilder struct {
	segments []string
}

// Push adds a segment to the path.
func (p *PathBuilder) Push(segment string) {
	p.segments = append(p.segments, segment)
}

// PushIndex adds a sequence index segment.
func (p *PathBuilder) PushIndex(i int) {
	p.segments = append(p.segments, strconv.Itoa(i))
}

// Pop removes the last segment.
func (p *PathBuilder) Pop() {
	if len(p.segments) == 0 {
		return
	}
	p.segments = p.segments[:len(p.segments)-1]
}

// Reset clears the builder for reuse.
func (p *PathBuilder) Reset() {
	p.segments = p.segments[:0]
}

// Len returns the number of segments.
func (p *PathBuilder) Len() int {
	return len(p.segments)
}

// Segments returns a copy of the current segments.
func (p *PathBuilder) Segments() []string {
	return append([]string(nil), p.segments...)
}

// Pointer renders the path as a JSON Pointer ("/a/b"); the root is "".
func (p *PathBuilder) Pointer() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		b.WriteString(pointer.Escape(seg))
	}
	return b.String()
}

// String is an alias for Pointer.
func (p *PathBuilder) String() string {
	return p.Pointer()
}
