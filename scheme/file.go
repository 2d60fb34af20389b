package scheme

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/erraggy/refresolver/internal/httputil"
	"github.com/erraggy/refresolver/referrors"
	"github.com/erraggy/refresolver/uri"
)

// FileResolver loads documents from the local filesystem.
type FileResolver struct {
	// BaseDir, when set, confines reads to this directory; relative paths
	// are resolved against it. Otherwise relative paths are resolved
	// against the working directory.
	BaseDir string
	// MaxFileSize is the largest file read, in bytes. Zero means
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// Resolve reads and decodes the file named by ref.
func (f *FileResolver) Resolve(ctx context.Context, ref *uri.URI) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := ref.FSPath().Path()
	if p == "" {
		return nil, &referrors.ReferenceError{Ref: ref.String(), Scheme: uri.SchemeFile, Message: "empty file path"}
	}
	p = filepath.FromSlash(p)

	if f.BaseDir != "" {
		var err error
		if p, err = f.confine(ref, p); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(p) //nolint:gosec // G304 - path is confined by BaseDir when one is configured
	if err != nil {
		return nil, &referrors.ReferenceError{Ref: ref.String(), Scheme: uri.SchemeFile, Cause: err}
	}
	defer func() { _ = file.Close() }()

	limit := f.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	data, err := readLimited(file, limit)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", p, err)
	}

	v, err := Decode(data, httputil.FormatFromPath(p))
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", p, err)
	}
	return v, nil
}

func (f *FileResolver) confine(ref *uri.URI, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(f.BaseDir, p)
	}
	absBase, err := filepath.Abs(f.BaseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &referrors.ReferenceError{
			Ref:             ref.String(),
			Scheme:          uri.SchemeFile,
			IsPathTraversal: true,
		}
	}
	return absPath, nil
}

// readLimited reads at most limit bytes from r, failing if there are more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &referrors.ResourceLimitError{
			ResourceType: "document_size",
			Limit:        limit,
			Actual:       int64(len(data)),
			Message:      "document exceeds maximum size",
		}
	}
	return data, nil
}
