package transport

import (
	"fmt"
	"time"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// Listen opens a listener for backend on addr.
// Addresses prefixed with "unix:" are Unix domain sockets and always use the net backend.
func Listen(backend Backend, addr string, readTimeout time.Duration) (Listener, error) {
	if path, ok := SplitUnixAddr(addr); ok {
		if backend != BackendNet {
			return nil, httperrors.NewInvalidArgumentError(
				fmt.Sprintf("backend %q cannot serve unix socket %s", backend, path),
			)
		}
		l, err := ListenUnix(path, readTimeout)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	switch backend {
	case BackendNet:
		l, err := ListenNet("tcp", addr, readTimeout)
		if err != nil {
			return nil, err
		}
		return l, nil
	case BackendIoUring, BackendUring:
		return listenRing(addr, backend)
	default:
		return nil, httperrors.NewInvalidArgumentError(fmt.Sprintf("unknown backend %q", backend))
	}
}

// Destroyer is implemented by listeners holding resources shared with accepted transports
type Destroyer interface {
	Destroy()
}
