package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	httperrors "github.com/nczempin/httpd-go-uring/errors"
)

// NetTransport implements the Transport interface over a net.Conn
type NetTransport struct {
	conn        net.Conn
	readTimeout time.Duration
}

// NewNetTransport wraps an established connection.
// A zero readTimeout means reads never time out.
func NewNetTransport(conn net.Conn, readTimeout time.Duration) *NetTransport {
	return &NetTransport{
		conn:        conn,
		readTimeout: readTimeout,
	}
}

// Dial connects to addr over network ("tcp" or "unix")
func Dial(network, addr string, timeout time.Duration) (*NetTransport, error) {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		// Classify network errors using type assertions
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return nil, httperrors.NewTransportError(httperrors.TransportErrorDnsFailure, "failed to resolve "+addr, err)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, httperrors.NewTransportError(httperrors.TransportErrorTimeout, "dial timed out", err)
		}
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketConnectFailure, "failed to connect to "+addr, err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketCreateFailure, "failed to set TCP_NODELAY", err)
		}
	}

	return NewNetTransport(conn, 0), nil
}

// Write sends data over the connection
func (t *NetTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrClosedPipe) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "connection closed during write", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	return n, nil
}

// Read receives data from the connection
func (t *NetTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	if t.readTimeout > 0 {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return 0, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "failed to set read deadline", err)
		}
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorTimeout, "read timed out", err)
		}
		if errors.Is(err, io.EOF) || (n == 0 && len(buf) > 0) {
			return n, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "connection closed by peer", err)
		}
		return n, httperrors.NewTransportError(httperrors.TransportErrorSocketReadFailure, "read failed", err)
	}

	return n, nil
}

// Close closes the connection
func (t *NetTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketCloseFailure, "failed to close connection", err)
	}

	return nil
}

// RemoteAddr returns the peer address
func (t *NetTransport) RemoteAddr() string {
	if t.conn == nil || t.conn.RemoteAddr() == nil {
		return "-"
	}
	return t.conn.RemoteAddr().String()
}

// NetListener implements Listener with a net.Listener
type NetListener struct {
	ln          net.Listener
	readTimeout time.Duration
}

// ListenNet binds addr on network ("tcp" or "unix")
func ListenNet(network, addr string, readTimeout time.Duration) (*NetListener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketListenFailure, "failed to listen on "+addr, err)
	}
	return &NetListener{ln: ln, readTimeout: readTimeout}, nil
}

// Accept waits for the next connection
func (l *NetListener) Accept() (Transport, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, httperrors.NewTransportError(httperrors.TransportErrorConnectionClosed, "listener closed", err)
		}
		return nil, httperrors.NewTransportError(httperrors.TransportErrorSocketAcceptFailure, "accept failed", err)
	}
	return NewNetTransport(conn, l.readTimeout), nil
}

// Close stops the listener
func (l *NetListener) Close() error {
	if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return httperrors.NewTransportError(httperrors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

// Addr returns the bound address
func (l *NetListener) Addr() string {
	return l.ln.Addr().String()
}
