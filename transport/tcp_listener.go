//go:build linux

package transport

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
)

const (
	backlog   = 128 // backlog for listening
	ringDepth = 256 // submission queue entries of the shared ring
)

// RingListener accepts TCP connections through an iceber/iouring-go ring
type RingListener struct {
	iour    *iouring.IOURing
	fd      int
	addr    string
	backend Backend

	closeOnce sync.Once
	done      chan struct{}
}

// ListenRing binds addr ("host:port") and accepts through io_uring.
// backend decides which Transport wraps accepted sockets.
func ListenRing(addr string, backend Backend) (*RingListener, error) {
	if backend != BackendIoUring && backend != BackendUring {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("backend %q does not use io_uring", backend))
	}

	iour, err := iouring.New(ringDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	fd, bound, err := listenSocket(addr)
	if err != nil {
		iour.Close()
		return nil, err
	}

	return &RingListener{
		iour:    iour,
		fd:      fd,
		addr:    bound,
		backend: backend,
		done:    make(chan struct{}),
	}, nil
}

// create new socket, bind and start listening
func listenSocket(addr string) (int, string, error) {
	// Resolve the address
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return -1, "", errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			fmt.Sprintf("failed to resolve %s", addr),
			err,
		)
	}

	// Convert to syscall.Sockaddr
	var sa syscall.Sockaddr
	family := syscall.AF_INET
	if ip4 := tcpAddr.IP.To4(); ip4 != nil || tcpAddr.IP == nil {
		sa4 := &syscall.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		sa6 := &syscall.SockaddrInet6{Port: tcpAddr.Port}
		copy(sa6.Addr[:], tcpAddr.IP)
		sa = sa6
		family = syscall.AF_INET6
	}

	// SOCK_STREAM = TCP
	fd, err := syscall.Socket(family, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, "", errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		syscall.Close(fd)
		return -1, "", errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set SO_REUSEADDR",
			err,
		)
	}

	if err := syscall.Bind(fd, sa); err != nil {
		syscall.Close(fd)
		return -1, "", errors.NewTransportError(
			errors.TransportErrorSocketBindFailure,
			fmt.Sprintf("failed to bind %s", addr),
			err,
		)
	}

	if err := syscall.Listen(fd, backlog); err != nil {
		syscall.Close(fd)
		return -1, "", errors.NewTransportError(
			errors.TransportErrorSocketListenFailure,
			fmt.Sprintf("failed to listen on %s", addr),
			err,
		)
	}

	// Port 0 picks an ephemeral port, report the real one
	bound := addr
	if local, err := syscall.Getsockname(fd); err == nil {
		bound = sockaddrString(local)
	}

	return fd, bound, nil
}

// Accept waits for the next connection through the ring
func (l *RingListener) Accept() (Transport, error) {
	select {
	case <-l.done:
		return nil, errors.NewTransportError(errors.TransportErrorConnectionClosed, "listener closed", nil)
	default:
	}

	ch := make(chan iouring.Result, 1)
	if _, err := l.iour.SubmitRequest(iouring.Accept(l.fd), ch); err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit accept request",
			err,
		)
	}

	var result iouring.Result
	select {
	case result = <-ch:
	case <-l.done:
		return nil, errors.NewTransportError(errors.TransportErrorConnectionClosed, "listener closed", nil)
	}

	fd, err := result.ReturnFd()
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorSocketAcceptFailure,
			"accept failed",
			err,
		)
	}

	remote := "-"
	if sa, ok := result.ReturnValue1().(syscall.Sockaddr); ok {
		remote = sockaddrString(sa)
	}

	if l.backend == BackendUring {
		t, err := NewUringTransport(fd, remote)
		if err != nil {
			syscall.Close(fd)
			return nil, err
		}
		return t, nil
	}
	return NewRingTransport(l.iour, fd, remote), nil
}

// Close stops accepting. Connections already accepted keep working until Destroy.
func (l *RingListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		// Shutdown wakes an accept still pending in the ring
		syscall.Shutdown(l.fd, syscall.SHUT_RDWR)
		if cerr := syscall.Close(l.fd); cerr != nil {
			err = errors.NewTransportError(
				errors.TransportErrorSocketCloseFailure,
				"failed to close listening socket",
				cerr,
			)
		}
	})
	return err
}

// Destroy closes the listener and the shared ring
func (l *RingListener) Destroy() {
	l.Close()
	if l.iour != nil {
		l.iour.Close()
		l.iour = nil
	}
}

// Ring exposes the listener's ring so file reads can share it.
// It is nil after Destroy.
func (l *RingListener) Ring() *iouring.IOURing {
	return l.iour
}

// Addr returns the bound address
func (l *RingListener) Addr() string {
	return l.addr
}

func sockaddrString(sa syscall.Sockaddr) string {
	switch a := sa.(type) {
	case *syscall.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *syscall.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *syscall.SockaddrUnix:
		return a.Name
	default:
		return "-"
	}
}
