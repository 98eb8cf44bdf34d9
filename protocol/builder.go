package protocol

import "strconv"

// FormatResponse lays out a response for the wire:
// status line, one "Key: value" line per header, a blank line, the body.
// Unknown status codes are sent as 500.
func FormatResponse(resp *HttpResponse) []byte {
	code := resp.StatusCode
	reason := resp.Reason
	if reason == "" {
		reason = StatusText(code)
	}
	if reason == "" {
		code = StatusInternalServerError
		reason = StatusText(code)
	}

	size := len(Version11) + len(reason) + 8 + len(crlf)*2 + len(resp.Body)
	for _, h := range resp.Headers {
		size += len(h.Key) + len(h.Value) + 2 + len(crlf)
	}

	dst := make([]byte, 0, size)
	dst = append(dst, Version11...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, reason...)
	dst = append(dst, crlf...)

	for _, h := range resp.Headers {
		dst = append(dst, h.Key...)
		dst = append(dst, ": "...)
		dst = append(dst, h.Value...)
		dst = append(dst, crlf...)
	}

	dst = append(dst, crlf...)
	dst = append(dst, resp.Body...)
	return dst
}

// FormatRequest lays out a request for the wire
func FormatRequest(req *HttpRequest) []byte {
	version := req.Version
	if version == "" {
		version = Version11
	}

	dst := make([]byte, 0, len(req.Method)+len(req.Target)+len(version)+len(req.HeaderBlock)+len(req.Body)+8)
	dst = append(dst, req.Method...)
	dst = append(dst, ' ')
	dst = append(dst, req.Target...)
	dst = append(dst, ' ')
	dst = append(dst, version...)
	dst = append(dst, crlf...)

	if req.HeaderBlock != "" {
		dst = append(dst, req.HeaderBlock...)
		dst = append(dst, crlf...)
	}

	dst = append(dst, crlf...)
	dst = append(dst, req.Body...)
	return dst
}
