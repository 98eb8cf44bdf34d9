//go:build linux

package transport

import (
	"os"

	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/httpd-go-uring/errors"
)

// UringTransport implements Transport on an accepted socket using godzie44/go-uring.
// Each connection owns its ring, so no completion can belong to another connection.
type UringTransport struct {
	ring   *uring.Ring
	file   *os.File
	remote string
}

// NewUringTransport wraps an accepted socket fd; the transport takes ownership of fd
func NewUringTransport(fd int, remote string) (*UringTransport, error) {
	// Create io_uring instance with queue depth of 32
	ring, err := uring.New(32)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &UringTransport{
		ring:   ring,
		file:   os.NewFile(uintptr(fd), "socket"),
		remote: remote,
	}, nil
}

// Write sends data over the connection using io_uring
func (t *UringTransport) Write(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errClosed()
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.complete(uring.Write(t.file.Fd(), buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure)
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
func (t *UringTransport) Read(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errClosed()
	}

	n, err := t.complete(uring.Read(t.file.Fd(), buf, 0), errors.TransportErrorSocketReadFailure)
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

// complete submits one operation and waits for its result.
// The ring belongs to this connection, so the next completion is ours.
func (t *UringTransport) complete(op uring.Operation, failure errors.TransportError) (int, error) {
	if err := t.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to queue request", err)
	}
	if _, err := t.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(errors.TransportErrorIoUringSubmit, "failed to submit request", err)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(failure, "failed to wait for completion", err)
	}
	defer t.ring.SeenCQE(cqe)

	if err := cqe.Error(); err != nil {
		return 0, errors.NewTransportError(failure, "operation failed", err)
	}
	return int(cqe.Res), nil
}

func errClosed() error {
	return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed", nil)
}

// Close closes the socket and releases the ring
func (t *UringTransport) Close() error {
	if t.file == nil {
		return nil
	}

	err := t.file.Close()
	t.file = nil

	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}

// RemoteAddr returns the peer address
func (t *UringTransport) RemoteAddr() string {
	return t.remote
}
