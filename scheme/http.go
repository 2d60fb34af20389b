package scheme

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erraggy/refresolver"
	"github.com/erraggy/refresolver/internal/httputil"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

// HTTPResolver loads documents over HTTP and HTTPS.
type HTTPResolver struct {
	// Client issues the requests. Nil means a client with DefaultHTTPTimeout.
	Client *http.Client
	// UserAgent is sent with every request. Empty means refresolver.UserAgent().
	UserAgent string
	// MaxFileSize is the largest body read, in bytes. Zero means
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// Resolve GETs ref and decodes the body. Only 200 responses are accepted.
func (h *HTTPResolver) Resolve(ctx context.Context, ref *uri.URI) (any, error) {
	target := ref.WithoutFragment().String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	userAgent := h.UserAgent
	if userAgent == "" {
		userAgent = refresolver.UserAgent()
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", httputil.AcceptHeader)

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	resp, err := client.Do(req) //nolint:gosec // G107 - URL comes from the document being resolved
	if err != nil {
		return nil, &referrors.ReferenceError{Ref: target, Scheme: ref.Scheme(), Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &referrors.ReferenceError{
			Ref:     target,
			Scheme:  ref.Scheme(),
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	limit := h.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	data, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	format := httputil.DetectFormat(ref.Path(), resp.Header.Get("Content-Type"), data)
	v, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}
	return v, nil
}
