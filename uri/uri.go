// Package uri models the authority part of a JSON Reference: scheme, host,
// path and fragment.
//
// A [URI] is immutable. Bare paths and "file:" URIs are file authorities;
// "http" and "https" URIs are remote authorities; a URI with only a
// fragment points into the current document.
package uri

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Well-known schemes.
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// URI is a parsed reference authority with an optional fragment.
type URI struct {
	scheme   string
	user     *url.Userinfo
	host     string
	path     string
	rawQuery string
	fragment string
}

// Parse parses s into a URI. Scheme and host are lower-cased and the path is
// NFC-normalised, so equivalent spellings of one authority compare equal.
func Parse(s string) (*URI, error) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("uri: invalid reference %q: %w", s, err)
	}
	p := u.Path
	if u.Opaque != "" {
		// "urn:x:y" style; keep the opaque part as the path
		p = u.Opaque
	}
	return &URI{
		scheme:   strings.ToLower(u.Scheme),
		user:     u.User,
		host:     strings.ToLower(u.Host),
		path:     norm.NFC.String(p),
		rawQuery: u.RawQuery,
		fragment: u.Fragment,
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Scheme returns the lower-cased scheme, or "" for bare paths.
func (u *URI) Scheme() string { return u.scheme }

// Host returns the host (with port), or "".
func (u *URI) Host() string { return u.host }

// Path returns the path component.
func (u *URI) Path() string { return u.path }

// Query returns the raw query string.
func (u *URI) Query() string { return u.rawQuery }

// Fragment returns the decoded fragment without the leading '#'.
func (u *URI) Fragment() string { return u.fragment }

// String renders the URI. Scheme-less URIs are rendered verbatim
// (path, query, fragment) so file paths stay readable.
func (u *URI) String() string {
	if u.scheme == "" && u.host == "" {
		var b strings.Builder
		b.WriteString(u.path)
		if u.rawQuery != "" {
			b.WriteByte('?')
			b.WriteString(u.rawQuery)
		}
		if u.fragment != "" {
			b.WriteByte('#')
			b.WriteString(u.fragment)
		}
		return b.String()
	}
	return u.url().String()
}

func (u *URI) url() *url.URL {
	return &url.URL{
		Scheme:   u.scheme,
		User:     u.user,
		Host:     u.host,
		Path:     u.path,
		RawQuery: u.rawQuery,
		Fragment: u.fragment,
	}
}

func (u *URI) clone() *URI {
	c := *u
	return &c
}

// WithFragment returns a copy of u with its fragment replaced.
func (u *URI) WithFragment(fragment string) *URI {
	c := u.clone()
	c.fragment = strings.TrimPrefix(fragment, "#")
	return c
}

// WithoutFragment returns a copy of u with the fragment cleared.
func (u *URI) WithoutFragment() *URI {
	return u.WithFragment("")
}

// CacheKey identifies the document u belongs to: the URI without fragment.
func (u *URI) CacheKey() string {
	return u.WithoutFragment().String()
}

// IsEmpty reports whether u has no components at all.
func (u *URI) IsEmpty() bool {
	return u.scheme == "" && u.host == "" && u.path == "" && u.rawQuery == "" && u.fragment == ""
}

// IsFragmentOnly reports whether u points into the current document.
func (u *URI) IsFragmentOnly() bool {
	return u.scheme == "" && u.host == "" && u.path == "" && u.rawQuery == ""
}

// IsAbsolute reports whether u has a scheme or a rooted path.
func (u *URI) IsAbsolute() bool {
	return u.scheme != "" || strings.HasPrefix(u.path, "/")
}

// IsHTTP reports whether u uses the http or https scheme.
func (u *URI) IsHTTP() bool {
	return u.scheme == SchemeHTTP || u.scheme == SchemeHTTPS
}

// SameDocument reports whether u and other address the same document,
// ignoring fragments.
func (u *URI) SameDocument(other *URI) bool {
	if other == nil {
		return false
	}
	return u.scheme == other.scheme && u.host == other.host && u.path == other.path && u.rawQuery == other.rawQuery
}

// FSPath strips a "file" scheme, returning the bare path form of u.
// Non-file URIs are returned unchanged.
func (u *URI) FSPath() *URI {
	if u.scheme != SchemeFile {
		return u
	}
	c := u.clone()
	c.scheme = ""
	c.host = ""
	c.user = nil
	return c
}

// Dir returns the directory part of u's path.
func (u *URI) Dir() string {
	if u.path == "" {
		return ""
	}
	return path.Dir(u.path)
}

// JoinPath resolves ref's path against the directory of u's path. The
// fragment of ref is kept. If u has no path the result is the empty URI,
// meaning the reference cannot be located.
func (u *URI) JoinPath(ref *URI) *URI {
	if u.path == "" {
		return &URI{}
	}
	c := ref.clone()
	c.scheme = u.scheme
	c.user = u.user
	c.host = u.host
	c.path = path.Join(u.Dir(), strings.TrimPrefix(ref.path, "/"))
	return c
}

// ResolveReference absolutises ref against u per RFC 3986.
func (u *URI) ResolveReference(ref *URI) *URI {
	resolved := u.url().ResolveReference(ref.url())
	return &URI{
		scheme:   resolved.Scheme,
		user:     resolved.User,
		host:     resolved.Host,
		path:     norm.NFC.String(resolved.Path),
		rawQuery: resolved.RawQuery,
		fragment: resolved.Fragment,
	}
}
