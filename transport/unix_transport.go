package transport

import (
	"os"
	"strings"
	"time"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// unixPrefix marks an address as a Unix domain socket path
const unixPrefix = "unix:"

// SplitUnixAddr reports whether addr names a Unix domain socket and returns its path
func SplitUnixAddr(addr string) (string, bool) {
	if strings.HasPrefix(addr, unixPrefix) {
		return strings.TrimPrefix(addr, unixPrefix), true
	}
	return "", false
}

// ListenUnix listens on a Unix domain socket at path.
// A stale socket file left by a previous run is removed first.
func ListenUnix(path string, readTimeout time.Duration) (*NetListener, error) {
	if path == "" {
		return nil, httperrors.NewInvalidArgumentError("unix socket path is empty")
	}

	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSocket == 0 {
			return nil, httperrors.NewTransportError(
				httperrors.TransportErrorSocketBindFailure,
				path+" exists and is not a socket",
				nil,
			)
		}
		if err := os.Remove(path); err != nil {
			return nil, httperrors.NewTransportError(
				httperrors.TransportErrorSocketBindFailure,
				"failed to remove stale socket "+path,
				err,
			)
		}
	}

	return ListenNet("unix", path, readTimeout)
}

// DialUnix connects to a Unix domain socket at path
func DialUnix(path string, timeout time.Duration) (*NetTransport, error) {
	return Dial("unix", path, timeout)
}
