// Package fileutil provides helpers for writing output files.
package fileutil

import (
	"fmt"
	"os"

	"github.com/erraggy/refresolver/internal/pathutil"
)

// OwnerReadWrite is the file permission mode for resolved documents,
// which may contain potentially sensitive API data (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// ErrSymlink is returned by WriteOutput when the target path is a symlink.
var ErrSymlink = pathutil.ErrSymlink

// WriteOutput writes data to path with OwnerReadWrite permissions and
// returns the cleaned absolute path written to. Existing symlinks are
// rejected rather than followed.
func WriteOutput(path string, data []byte) (string, error) {
	abs, err := pathutil.SanitizeOutputPath(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, OwnerReadWrite); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return abs, nil
}
