//go:build linux

package main

import (
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/transport"
)

// fileStore reads files through the listener's ring when there is one
func fileStore(ln transport.Listener) files.Store {
	if rl, ok := ln.(*transport.RingListener); ok && rl.Ring() != nil {
		return files.NewRingStore(rl.Ring())
	}
	return files.OSStore{}
}
