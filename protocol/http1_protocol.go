package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

const (
	// DefaultReadBufferSize is the scratch buffer handed to each transport read
	DefaultReadBufferSize = 1024
	// DefaultMaxMessageSize bounds how much of one message is buffered
	DefaultMaxMessageSize = 1 << 20
)

var (
	headerSeparatorBytes = []byte(headerSeparator)
	contentLengthKey     = []byte("content-length:")
)

// Limits configures how a message is read off a transport.
// Zero values select the defaults.
type Limits struct {
	ReadBufferSize int
	MaxMessageSize int
}

func (l Limits) withDefaults() Limits {
	if l.ReadBufferSize <= 0 {
		l.ReadBufferSize = DefaultReadBufferSize
	}
	if l.MaxMessageSize <= 0 {
		l.MaxMessageSize = DefaultMaxMessageSize
	}
	return l
}

// Http1Protocol implements HTTP/1.1 framing over a transport, one message each way
type Http1Protocol struct {
	transport     transport.Transport
	limits        Limits
	buffer        []byte
	headerSize    int
	contentLength int
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler
func NewHttp1Protocol(t transport.Transport, limits Limits) *Http1Protocol {
	limits = limits.withDefaults()
	return &Http1Protocol{
		transport:     t,
		limits:        limits,
		buffer:        make([]byte, 0, limits.ReadBufferSize),
		headerSize:    0,
		contentLength: -1,
	}
}

// ReadRequest reads one request and parses it.
//
// The message is complete once the header block has ended and
// Content-Length bytes of body (none when the header is absent) follow it.
// If the peer stops sending early, whatever arrived is parsed; an error is
// returned only when nothing arrived at all.
func (p *Http1Protocol) ReadRequest() (*HttpRequest, error) {
	if err := p.readMessage(false); err != nil {
		return nil, err
	}

	return ParseRequest(p.buffer[:p.messageEnd()])
}

// WriteResponse formats resp and hands it to the transport in one write
func (p *Http1Protocol) WriteResponse(resp *HttpResponse) error {
	return p.write(FormatResponse(resp))
}

// WriteRequest formats req and hands it to the transport in one write
func (p *Http1Protocol) WriteRequest(req *HttpRequest) error {
	return p.write(FormatRequest(req))
}

// ReadResponse reads one response and parses it.
// Without Content-Length the body runs until the peer closes.
func (p *Http1Protocol) ReadResponse() (*HttpResponse, error) {
	if err := p.readMessage(true); err != nil {
		return nil, err
	}

	if p.contentLength >= 0 && len(p.buffer)-p.headerSize < p.contentLength {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorIncompleteResponse,
			"connection closed before complete response received",
		)
	}

	return p.parseResponse()
}

func (p *Http1Protocol) write(data []byte) error {
	n, err := p.transport.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			fmt.Sprintf("short write: %d of %d bytes", n, len(data)),
			nil,
		)
	}
	return nil
}

// readMessage reads one message into the internal buffer.
// untilClose keeps reading a body without Content-Length until the peer closes.
func (p *Http1Protocol) readMessage(untilClose bool) error {
	p.buffer = p.buffer[:0]
	p.headerSize = 0
	p.contentLength = -1

	readBuf := make([]byte, p.limits.ReadBufferSize)

	for {
		scanned := len(p.buffer)
		n, err := p.transport.Read(readBuf)
		if n > 0 {
			p.buffer = append(p.buffer, readBuf[:n]...)
		}
		if err != nil {
			if len(p.buffer) == 0 {
				return err
			}
			// Peer stopped early, work with what we have
			return p.checkSize()
		}

		if err := p.checkSize(); err != nil {
			return err
		}

		// Look for header separator if we haven't found it yet. Only the
		// new bytes and a possible partial separator before them are searched.
		if p.headerSize == 0 {
			from := max(0, scanned-len(headerSeparatorBytes)+1)
			if pos := bytes.Index(p.buffer[from:], headerSeparatorBytes); pos >= 0 {
				p.headerSize = from + pos + len(headerSeparatorBytes)
				p.contentLength = parseContentLength(p.buffer[:p.headerSize])

				// headerSize never exceeds the limit here, so the subtraction cannot wrap
				if p.contentLength > p.limits.MaxMessageSize-p.headerSize {
					return errors.NewProtocolError(
						errors.ProtocolErrorMessageTooLarge,
						fmt.Sprintf("declared body of %d bytes exceeds limit", p.contentLength),
					)
				}
			}
		}

		if p.headerSize == 0 {
			continue
		}

		// Check if we have the complete message
		if p.contentLength >= 0 {
			if len(p.buffer)-p.headerSize >= p.contentLength {
				return nil
			}
		} else if !untilClose {
			return nil
		}
	}
}

func (p *Http1Protocol) checkSize() error {
	if len(p.buffer) > p.limits.MaxMessageSize && p.headerSize == 0 {
		return errors.NewProtocolError(
			errors.ProtocolErrorMessageTooLarge,
			fmt.Sprintf("header block exceeds %d bytes", p.limits.MaxMessageSize),
		)
	}
	return nil
}

// messageEnd is the end of the current message inside the buffer;
// bytes past it belong to nobody and are dropped
func (p *Http1Protocol) messageEnd() int {
	if p.headerSize == 0 {
		return len(p.buffer)
	}
	if p.contentLength <= 0 {
		return p.headerSize
	}
	if p.contentLength > len(p.buffer)-p.headerSize {
		return len(p.buffer)
	}
	return p.headerSize + p.contentLength
}

// parseContentLength extracts Content-Length from a header block, -1 if absent or invalid
func parseContentLength(headersView []byte) int {
	lines := bytes.Split(headersView, []byte("\n"))
	for _, line := range lines[1:] { // Skip start line
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			break
		}

		if len(line) >= len(contentLengthKey) && bytes.EqualFold(line[:len(contentLengthKey)], contentLengthKey) {
			valueStr := strings.TrimSpace(string(line[len(contentLengthKey):]))
			if length, err := strconv.Atoi(valueStr); err == nil && length >= 0 {
				return length
			}
			return -1
		}
	}
	return -1
}

// parseResponse parses the response buffer into an HttpResponse
func (p *Http1Protocol) parseResponse() (*HttpResponse, error) {
	if p.headerSize == 0 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"no headers found",
		)
	}

	headersBlock := p.buffer[:p.headerSize-len(headerSeparatorBytes)]

	// Split into status line and rest of headers
	parts := bytes.SplitN(headersBlock, []byte("\n"), 2)
	statusLine := bytes.TrimSuffix(parts[0], []byte("\r"))

	// Parse status line: "HTTP/1.1 200 OK"
	statusParts := bytes.SplitN(statusLine, []byte(" "), 3)
	if len(statusParts) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			"invalid status line format",
		)
	}

	statusCode, err := strconv.Atoi(string(statusParts[1]))
	if err != nil {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidStatusLine,
			fmt.Sprintf("invalid status code: %s", statusParts[1]),
		)
	}

	resp := &HttpResponse{StatusCode: statusCode}
	if len(statusParts) >= 3 {
		resp.Reason = string(statusParts[2])
	}

	// Parse headers
	if len(parts) > 1 {
		headerLines := bytes.Split(parts[1], []byte("\n"))
		for _, line := range headerLines {
			line = bytes.TrimSuffix(line, []byte("\r"))
			if len(line) == 0 {
				break
			}

			headerParts := bytes.SplitN(line, []byte(":"), 2)
			if len(headerParts) != 2 {
				return nil, errors.NewProtocolError(
					errors.ProtocolErrorInvalidHeader,
					fmt.Sprintf("header line without colon: %q", line),
				)
			}
			resp.Headers = append(resp.Headers, HttpHeader{
				Key:   string(headerParts[0]),
				Value: strings.TrimSpace(string(headerParts[1])),
			})
		}
	}

	// Extract body
	end := len(p.buffer)
	if p.contentLength >= 0 && p.contentLength < end-p.headerSize {
		end = p.headerSize + p.contentLength
	}
	if end > p.headerSize {
		resp.Body = make([]byte, end-p.headerSize)
		copy(resp.Body, p.buffer[p.headerSize:end])
	}

	return resp, nil
}
