//go:build !linux

package transport

import (
	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

func listenRing(addr string, backend Backend) (Listener, error) {
	return nil, httperrors.NewTransportError(
		httperrors.TransportErrorUnsupported,
		"backend "+string(backend)+" requires linux",
		nil,
	)
}
