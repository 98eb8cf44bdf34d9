package files

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Store reads whole regular files
type Store interface {
	ReadFile(path string) ([]byte, error)
}

// OSStore reads through the os package
type OSStore struct{}

// ReadFile returns the contents of the regular file at path
func (OSStore) ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewFilesystemError(
			errors.FilesystemErrorNotRegular,
			fmt.Sprintf("%s is not a regular file", path),
			nil,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFilesystemError(errors.FilesystemErrorReadFailure, path, err)
	}
	return data, nil
}

// ReadText resolves name under root, reads it through store and requires
// the contents to be valid UTF-8
func ReadText(root Root, store Store, name string) ([]byte, error) {
	path, err := root.Resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, errors.NewFilesystemError(
			errors.FilesystemErrorInvalidEncoding,
			fmt.Sprintf("%s is not valid UTF-8", name),
			nil,
		)
	}
	return data, nil
}

func statError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.NewFilesystemError(errors.FilesystemErrorNotFound, path, err)
	}
	return errors.NewFilesystemError(errors.FilesystemErrorReadFailure, path, err)
}
