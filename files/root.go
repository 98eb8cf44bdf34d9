package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Root is the canonical directory files are served from.
// The zero value serves nothing.
type Root struct {
	path string
}

// NewRoot canonicalizes dir and checks that it is a directory.
// The stored path always ends with a separator so that prefix checks
// cannot match a sibling such as "/srv/data2" for root "/srv/data".
func NewRoot(dir string) (Root, error) {
	if dir == "" {
		return Root{}, errors.NewInvalidArgumentError("directory is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, errors.NewFilesystemError(errors.FilesystemErrorNotFound, dir, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, errors.NewFilesystemError(errors.FilesystemErrorNotFound, dir, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return Root{}, errors.NewFilesystemError(errors.FilesystemErrorNotFound, dir, err)
	}
	if !info.IsDir() {
		return Root{}, errors.NewFilesystemError(
			errors.FilesystemErrorNotRegular,
			fmt.Sprintf("%s is not a directory", dir),
			nil,
		)
	}

	if !strings.HasSuffix(canonical, string(filepath.Separator)) {
		canonical += string(filepath.Separator)
	}
	return Root{path: canonical}, nil
}

// Path returns the canonical root, separator-terminated
func (r Root) Path() string {
	return r.path
}

// Resolve joins name onto the root by plain concatenation, canonicalizes
// the result and rejects anything that lands outside the root.
// The file must exist.
func (r Root) Resolve(name string) (string, error) {
	if r.path == "" {
		return "", errors.NewFilesystemError(errors.FilesystemErrorNotFound, "no file root configured", nil)
	}

	candidate := r.path + name
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", errors.NewFilesystemError(errors.FilesystemErrorNotFound, name, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", errors.NewFilesystemError(errors.FilesystemErrorNotFound, name, err)
	}

	if !strings.HasPrefix(resolved, r.path) {
		return "", errors.NewFilesystemError(
			errors.FilesystemErrorOutsideRoot,
			fmt.Sprintf("%s resolves outside %s", name, r.path),
			nil,
		)
	}
	return resolved, nil
}
