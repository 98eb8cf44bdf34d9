//go:build linux

package transport

import (
	"sync"
	"syscall"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
)

// RingTransport implements Transport on an accepted socket using a shared io_uring
type RingTransport struct {
	iour   *iouring.IOURing
	fd     int
	remote string

	mu     sync.Mutex
	closed bool
}

// NewRingTransport wraps an accepted socket fd; iour must outlive the transport
func NewRingTransport(iour *iouring.IOURing, fd int, remote string) *RingTransport {
	return &RingTransport{
		iour:   iour,
		fd:     fd,
		remote: remote,
	}
}

// Write sends data over the connection using io_uring
func (t *RingTransport) Write(buf []byte) (int, error) {
	if t.isClosed() {
		return 0, errClosed()
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.submit(iouring.Send(t.fd, buf[totalWritten:], syscall.MSG_NOSIGNAL), errors.TransportErrorSocketWriteFailure)
		if err != nil {
			return totalWritten, err
		}
		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}
		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (t *RingTransport) Read(buf []byte) (int, error) {
	if t.isClosed() {
		return 0, errClosed()
	}

	n, err := t.submit(iouring.Recv(t.fd, buf, 0), errors.TransportErrorSocketReadFailure)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// submit runs one request on the shared ring and waits for its result
func (t *RingTransport) submit(prep iouring.PrepRequest, failure errors.TransportError) (int, error) {
	ch := make(chan iouring.Result, 1)
	if _, err := t.iour.SubmitRequest(prep, ch); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to submit request", err)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		if err == syscall.EPIPE || err == syscall.ECONNRESET {
			return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection reset by peer", err)
		}
		return 0, errors.NewTransportError(failure, "operation failed", err)
	}
	return n, nil
}

// Close closes the socket; the shared ring stays open
func (t *RingTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if err := syscall.Close(t.fd); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	t.fd = -1

	return nil
}

// RemoteAddr returns the peer address
func (t *RingTransport) RemoteAddr() string {
	return t.remote
}

func (t *RingTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
