package protocol

const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusPayloadTooLarge     = 413
	StatusInternalServerError = 500
)

// lookup table for status reasons
// flat array instead of map bc codes are fixed
var statusTable = [600]string{
	// 1xx
	100: "Continue",
	101: "Switching Protocols",

	// 2xx
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",

	// 3xx
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",

	// 4xx
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	413: "Payload Too Large",

	// 5xx
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

// StatusText returns the reason phrase for code, or "" if the code is unknown
func StatusText(code int) string {
	if code < 0 || code >= len(statusTable) {
		return ""
	}
	return statusTable[code]
}
