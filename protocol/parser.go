package protocol

import (
	"strings"
	"unicode/utf8"

	"github.com/nczempin/httpd-go-uring/errors"
)

const (
	crlf            = "\r\n"
	headerSeparator = "\r\n\r\n"
)

// ParseRequest splits a raw message into request line, header block and body.
//
// The request line ends at the first CRLF and the header block at the first
// blank line after it. A message without that blank line, including one whose
// request line is followed directly by CRLF and data, keeps an empty header
// block and body. The request line is split on single spaces; it must
// carry a method and a non-empty target.
func ParseRequest(raw []byte) (*HttpRequest, error) {
	if !utf8.Valid(raw) {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidEncoding,
			"request is not valid UTF-8",
		)
	}
	text := string(raw)

	requestLine, rest, ok := strings.Cut(text, crlf)
	if !ok {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidRequestLine,
			"request line is not terminated by CRLF",
		)
	}

	var headerBlock, body string
	if h, b, found := strings.Cut(rest, headerSeparator); found {
		headerBlock, body = h, b
	}

	tokens := strings.Split(requestLine, " ")
	if len(tokens) < 2 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidRequestLine,
			"request line has no target",
		)
	}
	if tokens[0] == "" || tokens[1] == "" {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorInvalidRequestLine,
			"request line has an empty method or target",
		)
	}

	req := &HttpRequest{
		Method:      tokens[0],
		Target:      tokens[1],
		HeaderBlock: headerBlock,
	}
	if len(tokens) > 2 {
		req.Version = tokens[2]
	}
	if body != "" {
		req.Body = []byte(body)
	}

	return req, nil
}
