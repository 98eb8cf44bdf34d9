//go:build linux

package transport

func listenRing(addr string, backend Backend) (Listener, error) {
	l, err := ListenRing(addr, backend)
	if err != nil {
		return nil, err
	}
	return l, nil
}
