//go:build linux

package files

import (
	"fmt"
	"os"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
)

// RingStore reads files with pread submitted through an io_uring ring.
// The ring may be shared with a listener.
type RingStore struct {
	iour *iouring.IOURing
}

// NewRingStore wraps an existing ring
func NewRingStore(iour *iouring.IOURing) *RingStore {
	return &RingStore{iour: iour}
}

// ReadFile returns the contents of the regular file at path
func (s *RingStore) ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, statError(path, err)
	}
	defer file.Close()

	info, err := file.Stat()
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

	buf := make([]byte, info.Size())
	var offset int
	for offset < len(buf) {
		ch := make(chan iouring.Result, 1)
		if _, err := s.iour.Pread(file, buf[offset:], uint64(offset), ch); err != nil {
			return nil, errors.NewFilesystemError(errors.FilesystemErrorReadFailure, "failed to submit pread", err)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return nil, errors.NewFilesystemError(errors.FilesystemErrorReadFailure, path, err)
		}
		if n == 0 {
			// File shrank underneath us
			break
		}
		offset += n
	}

	return buf[:offset], nil
}
