package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorFilesystem
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketBindFailure
	TransportErrorSocketListenFailure
	TransportErrorSocketAcceptFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketCloseFailure
	TransportErrorConnectionClosed
	TransportErrorDnsFailure
	TransportErrorTimeout
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
	TransportErrorUnsupported
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorNone:
		return "none"
	case TransportErrorSocketCreateFailure:
		return "socket creation failed"
	case TransportErrorSocketConnectFailure:
		return "socket connection failed"
	case TransportErrorSocketBindFailure:
		return "socket bind failed"
	case TransportErrorSocketListenFailure:
		return "socket listen failed"
	case TransportErrorSocketAcceptFailure:
		return "socket accept failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorSocketCloseFailure:
		return "socket close failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorDnsFailure:
		return "DNS lookup failed"
	case TransportErrorTimeout:
		return "timed out"
	case TransportErrorIoUringInit:
		return "io_uring setup failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failed"
	case TransportErrorUnsupported:
		return "unsupported on this platform"
	default:
		return fmt.Sprintf("unknown transport error %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorInvalidEncoding
	ProtocolErrorInvalidRequestLine
	ProtocolErrorInvalidStatusLine
	ProtocolErrorInvalidHeader
	ProtocolErrorMessageTooLarge
	ProtocolErrorIncompleteResponse
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorNone:
		return "none"
	case ProtocolErrorInvalidEncoding:
		return "invalid encoding"
	case ProtocolErrorInvalidRequestLine:
		return "invalid request line"
	case ProtocolErrorInvalidStatusLine:
		return "invalid status line"
	case ProtocolErrorInvalidHeader:
		return "invalid header"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	case ProtocolErrorIncompleteResponse:
		return "incomplete response"
	default:
		return fmt.Sprintf("unknown protocol error %d", int(e))
	}
}

// FilesystemError represents failures while resolving or reading served files
type FilesystemError int

const (
	FilesystemErrorNone FilesystemError = iota
	FilesystemErrorNotFound
	FilesystemErrorOutsideRoot
	FilesystemErrorNotRegular
	FilesystemErrorReadFailure
	FilesystemErrorInvalidEncoding
)

func (e FilesystemError) String() string {
	switch e {
	case FilesystemErrorNone:
		return "none"
	case FilesystemErrorNotFound:
		return "not found"
	case FilesystemErrorOutsideRoot:
		return "outside of served root"
	case FilesystemErrorNotRegular:
		return "not a regular file"
	case FilesystemErrorReadFailure:
		return "read failed"
	case FilesystemErrorInvalidEncoding:
		return "invalid encoding"
	default:
		return fmt.Sprintf("unknown filesystem error %d", int(e))
	}
}

// HttpError is the main error type for the HTTP server
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	FilesystemErr FilesystemError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorFilesystem:
		typeStr = fmt.Sprintf("Filesystem error (%s)", e.FilesystemErr)
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewFilesystemError creates a new filesystem error
func NewFilesystemError(err FilesystemError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorFilesystem,
		FilesystemErr: err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// As returns the first *HttpError in err's chain
func As(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsTransport reports whether err is a transport error of the given kind
func IsTransport(err error, kind TransportError) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorTransport && httpErr.TransportErr == kind
}

// IsProtocol reports whether err is a protocol error of the given kind.
// ProtocolErrorNone matches any protocol error.
func IsProtocol(err error, kind ProtocolError) bool {
	httpErr, ok := As(err)
	if !ok || httpErr.Type != ErrorProtocol {
		return false
	}
	return kind == ProtocolErrorNone || httpErr.ProtocolErr == kind
}

// IsFilesystem reports whether err is a filesystem error of the given kind.
// FilesystemErrorNone matches any filesystem error.
func IsFilesystem(err error, kind FilesystemError) bool {
	httpErr, ok := As(err)
	if !ok || httpErr.Type != ErrorFilesystem {
		return false
	}
	return kind == FilesystemErrorNone || httpErr.FilesystemErr == kind
}
