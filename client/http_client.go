package client

import (
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// DefaultDialTimeout bounds Dial when no timeout is given
const DefaultDialTimeout = 5 * time.Second

// HttpClient sends one request per connection, matching the server's
// close-after-response behavior
type HttpClient struct {
	transport transport.Transport
	protocol  *protocol.Http1Protocol
	host      string
}

// NewHttpClient creates a client over an already connected transport.
// host fills the Host header when a request carries none.
func NewHttpClient(t transport.Transport, host string, limits protocol.Limits) *HttpClient {
	return &HttpClient{
		transport: t,
		protocol:  protocol.NewHttp1Protocol(t, limits),
		host:      host,
	}
}

// Dial connects to addr, a host:port or a "unix:" socket path
func Dial(addr string, timeout time.Duration) (*HttpClient, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	if path, ok := transport.SplitUnixAddr(addr); ok {
		t, err := transport.DialUnix(path, timeout)
		if err != nil {
			return nil, err
		}
		return NewHttpClient(t, "localhost", protocol.Limits{}), nil
	}

	t, err := transport.Dial("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	return NewHttpClient(t, addr, protocol.Limits{}), nil
}

// Get performs a GET request and reads the whole response
func (c *HttpClient) Get(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	if len(req.Body) > 0 {
		return nil, errors.NewInvalidArgumentError("GET request cannot have a body")
	}
	if req.Target == "" {
		return nil, errors.NewInvalidArgumentError("request target is required")
	}

	req.Method = protocol.MethodGet
	if req.Version == "" {
		req.Version = protocol.Version11
	}
	if _, ok := req.Header("Host"); !ok && c.host != "" {
		host := "Host: " + c.host
		if req.HeaderBlock == "" {
			req.HeaderBlock = host
		} else {
			req.HeaderBlock = host + "\r\n" + req.HeaderBlock
		}
	}

	if err := c.protocol.WriteRequest(req); err != nil {
		return nil, err
	}
	return c.protocol.ReadResponse()
}

// Close closes the connection
func (c *HttpClient) Close() error {
	return c.transport.Close()
}
