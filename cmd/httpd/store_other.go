//go:build !linux

package main

import (
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/transport"
)

func fileStore(transport.Listener) files.Store {
	return files.OSStore{}
}
