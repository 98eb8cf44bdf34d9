package transport

// Transport is the byte source and sink for a single accepted connection
type Transport interface {
	// Read receives data from the peer
	// Returns the number of bytes read
	Read(buf []byte) (int, error)

	// Write sends data to the peer
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Close closes the connection
	Close() error
}

// Listener hands out one Transport per accepted connection
type Listener interface {
	// Accept blocks until a new connection arrives
	Accept() (Transport, error)

	// Close stops accepting; a blocked Accept returns an error
	Close() error

	// Addr returns the address the listener is bound to
	Addr() string
}

// Backend selects how accepted connections perform I/O
type Backend string

const (
	// BackendNet uses the standard library network poller
	BackendNet Backend = "net"
	// BackendIoUring accepts and transfers through an iceber/iouring-go ring
	BackendIoUring Backend = "iouring"
	// BackendUring accepts through iceber/iouring-go and transfers through a godzie44/go-uring ring per connection
	BackendUring Backend = "uring"
)

// Backends lists every backend name accepted by Listen
var Backends = []Backend{BackendNet, BackendIoUring, BackendUring}

// ParseBackend validates a backend name
func ParseBackend(name string) (Backend, bool) {
	for _, b := range Backends {
		if string(b) == name {
			return b, true
		}
	}
	return "", false
}

// remoteAddresser is implemented by transports that know their peer
type remoteAddresser interface {
	RemoteAddr() string
}

// RemoteAddr returns the peer address of t, or "-" when unknown
func RemoteAddr(t Transport) string {
	if ra, ok := t.(remoteAddresser); ok {
		return ra.RemoteAddr()
	}
	return "-"
}
