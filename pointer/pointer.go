// Package pointer implements RFC 6901 JSON Pointers in both their string
// form ("/a/b") and their URI fragment form ("#/a/b").
//
// A parsed pointer is a path: a slice of unescaped reference tokens. The
// empty path addresses the whole document.
package pointer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid is returned (wrapped) for strings that are not JSON Pointers.
var ErrInvalid = errors.New("invalid JSON pointer")

// Parse converts a JSON Pointer into its path segments.
//
// Accepted forms are "" and "#" (the root), "/a/b" (string form) and
// "#/a/b" (URI fragment form, percent-decoded before unescaping).
func Parse(ptr string) ([]string, error) {
	fragment := false
	if strings.HasPrefix(ptr, "#") {
		fragment = true
		ptr = ptr[1:]
	}
	if ptr == "" {
		return []string{}, nil
	}
	if ptr[0] != '/' {
		return nil, fmt.Errorf("%w: %q must start with '/' or '#/'", ErrInvalid, ptr)
	}
	if fragment {
		decoded, err := url.PathUnescape(ptr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalid, ptr, err)
		}
		ptr = decoded
	}

	tokens := strings.Split(ptr[1:], "/")
	path := make([]string, len(tokens))
	for i, tok := range tokens {
		seg, err := Unescape(tok)
		if err != nil {
			return nil, err
		}
		path[i] = seg
	}
	return path, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests.
func MustParse(ptr string) []string {
	path, err := Parse(ptr)
	if err != nil {
		panic(err)
	}
	return path
}

// Format renders path segments as an RFC 6901 string ("" for the root).
func Format(path []string) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range path {
		b.WriteByte('/')
		b.WriteString(Escape(seg))
	}
	return b.String()
}

// FormatFragment renders path segments as a URI fragment ("#" for the root).
func FormatFragment(path []string) string {
	return "#" + Format(path)
}

// Escape encodes "~" as "~0" and "/" as "~1".
func Escape(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape decodes "~1" to "/" and "~0" to "~". Any other "~" sequence is invalid.
func Unescape(token string) (string, error) {
	if !strings.Contains(token, "~") {
		return token, nil
	}
	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c != '~' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(token) {
			return "", fmt.Errorf("%w: dangling '~' in %q", ErrInvalid, token)
		}
		switch token[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("%w: bad escape '~%c' in %q", ErrInvalid, token[i+1], token)
		}
		i++
	}
	return b.String(), nil
}

// HasPrefix reports whether prefix is an ancestor of, or equal to, path.
func HasPrefix(path, prefix []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i, seg := range prefix {
		if path[i] != seg {
			return false
		}
	}
	return true
}

// IsRoot reports whether ptr addresses the whole document.
func IsRoot(ptr string) bool {
	switch strings.TrimSpace(ptr) {
	case "", "#", "#/":
		return true
	}
	return false
}
