// Package document provides the value model for JSON/YAML documents and
// copy-on-write updates with structural sharing.
//
// A document value is one of: nil, bool, a number (int, int64, uint64,
// float64, json.Number, ...), string, []any, or map[string]any. Values are
// treated as immutable: [Set] never modifies its input, it returns a new
// root that shares every subtree not on the updated path.
package document

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind classifies a document value.
type Kind int

// Document value kinds.
const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindNull:     "null",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindSequence: "sequence",
	KindMapping:  "mapping",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// KindOf returns the kind of v. Values outside the closed document model
// are KindInvalid; run them through [Normalize] first.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindSequence
	case map[string]any:
		return KindMapping
	default:
		return KindInvalid
	}
}

// IsContainer reports whether v is a sequence or a mapping.
func IsContainer(v any) bool {
	k := KindOf(v)
	return k == KindSequence || k == KindMapping
}

// Get returns the value at path. The second result is false when the path
// does not exist, which is distinct from a present null.
func Get(root any, path []string) (any, bool) {
	cur := root
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, ok := index(seg, len(node))
			if !ok {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set returns a new root with value stored at path. Only the containers on
// path are copied. Missing mapping keys along the way are created as empty
// mappings. A sequence index must be in range, or equal to the length to
// append. An empty path replaces the root.
func Set(root any, path []string, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	seg, rest := path[0], path[1:]
	switch node := root.(type) {
	case map[string]any:
		child, err := Set(node[seg], rest, value)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(node)+1)
		for k, v := range node {
			out[k] = v
		}
		out[seg] = child
		return out, nil
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx > len(node) {
			return nil, fmt.Errorf("document: invalid index %q for sequence of length %d", seg, len(node))
		}
		var cur any
		if idx < len(node) {
			cur = node[idx]
		}
		child, err := Set(cur, rest, value)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(node), max(len(node), idx+1))
		copy(out, node)
		if idx == len(node) {
			out = append(out, child)
		} else {
			out[idx] = child
		}
		return out, nil
	case nil:
		child, err := Set(nil, rest, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{seg: child}, nil
	default:
		return nil, fmt.Errorf("document: cannot set %q inside %s value", seg, KindOf(root))
	}
}

func index(seg string, n int) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// Normalize converts decoder output into the closed document model:
// map[any]any and typed maps become map[string]any, typed slices become
// []any. Containers are always rebuilt, so the input is never shared with
// or modified through the result.
func Normalize(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[k] = Normalize(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[fmt.Sprint(k)] = Normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = Normalize(child)
		}
		return out
	case []map[string]any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = Normalize(child)
		}
		return out
	case []string:
		out := make([]any, len(node))
		for i, s := range node {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of v.
func Clone(v any) any {
	return Normalize(v)
}
