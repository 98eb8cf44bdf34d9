package protocol

import (
	"strconv"
	"strings"
)

const (
	// MethodGet is the only method the bundled handlers are written for
	MethodGet = "GET"
	// Version11 is the protocol version written on every status line
	Version11 = "HTTP/1.1"
)

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// HttpRequest represents a parsed HTTP request.
// HeaderBlock keeps the header lines exactly as received; they are only
// split when a caller asks for them.
type HttpRequest struct {
	Method      string
	Target      string
	Version     string
	HeaderBlock string
	Body        []byte
}

// NewRequest builds a request with the given headers, in order
func NewRequest(method, target string, headers ...HttpHeader) *HttpRequest {
	lines := make([]string, 0, len(headers))
	for _, h := range headers {
		lines = append(lines, h.Key+": "+h.Value)
	}
	return &HttpRequest{
		Method:      method,
		Target:      target,
		Version:     Version11,
		HeaderBlock: strings.Join(lines, "\r\n"),
	}
}

// Headers splits the header block into ordered key-value pairs.
// Lines without a colon are skipped.
func (r *HttpRequest) Headers() []HttpHeader {
	var headers []HttpHeader
	r.eachHeader(func(key, value string) bool {
		headers = append(headers, HttpHeader{Key: key, Value: value})
		return true
	})
	return headers
}

// Header returns the value of the first header named name, compared case-insensitively
func (r *HttpRequest) Header(name string) (string, bool) {
	var (
		found string
		ok    bool
	)
	r.eachHeader(func(key, value string) bool {
		if strings.EqualFold(key, name) {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

// eachHeader walks the header block line by line until fn returns false.
// The value is everything after the first colon, trimmed.
func (r *HttpRequest) eachHeader(fn func(key, value string) bool) {
	rest := r.HeaderBlock
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\r\n")

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !fn(key, strings.TrimSpace(value)) {
			return
		}
	}
}

// HttpResponse represents an HTTP response.
// Reason overrides the status table when set; it is filled in when a
// response is parsed off the wire.
type HttpResponse struct {
	StatusCode int
	Reason     string
	Headers    []HttpHeader
	Body       []byte
}

// NewResponse creates a response with no headers and no body
func NewResponse(code int) *HttpResponse {
	return &HttpResponse{StatusCode: code}
}

// SetHeader replaces the first header named key or appends a new one
func (r *HttpResponse) SetHeader(key, value string) {
	for i := range r.Headers {
		if strings.EqualFold(r.Headers[i].Key, key) {
			r.Headers[i].Value = value
			return
		}
	}
	r.Headers = append(r.Headers, HttpHeader{Key: key, Value: value})
}

// Header returns the value of the first header named key
func (r *HttpResponse) Header(key string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// SetBody sets the body together with Content-Type and a Content-Length
// equal to the body's length in bytes
func (r *HttpResponse) SetBody(contentType string, body []byte) {
	r.Body = body
	r.SetHeader("Content-Type", contentType)
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
}
