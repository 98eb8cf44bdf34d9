package handlers

import (
	"strings"

	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/router"
)

const (
	echoPrefix  = "/echo/"
	filesPrefix = "/files/"

	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"
)

// Root answers "/" with an empty 200
func Root(*protocol.HttpRequest) *protocol.HttpResponse {
	return protocol.NewResponse(protocol.StatusOK)
}

// NotFound answers with an empty 404
func NotFound(*protocol.HttpRequest) *protocol.HttpResponse {
	return protocol.NewResponse(protocol.StatusNotFound)
}

// Echo returns whatever follows "/echo/" in the target, verbatim
func Echo(req *protocol.HttpRequest) *protocol.HttpResponse {
	text := strings.TrimPrefix(req.Target, echoPrefix)

	resp := protocol.NewResponse(protocol.StatusOK)
	resp.SetBody(contentTypeText, []byte(text))
	return resp
}

// UserAgent returns the value of the request's User-Agent header,
// or an empty body when there is none
func UserAgent(req *protocol.HttpRequest) *protocol.HttpResponse {
	ua, _ := req.Header("User-Agent")

	resp := protocol.NewResponse(protocol.StatusOK)
	resp.SetBody(contentTypeText, []byte(ua))
	return resp
}

// Files serves regular UTF-8 files below root.
// Every failure is reported as a plain 404.
func Files(root files.Root, store files.Store) router.HandlerFunc {
	return func(req *protocol.HttpRequest) *protocol.HttpResponse {
		name := strings.TrimPrefix(req.Target, filesPrefix)

		data, err := files.ReadText(root, store, name)
		if err != nil {
			return NotFound(req)
		}

		resp := protocol.NewResponse(protocol.StatusOK)
		resp.SetBody(contentTypeBinary, data)
		return resp
	}
}

// Routes builds the fixed routing table, in match order
func Routes(root files.Root, store files.Store) []router.Route {
	return []router.Route{
		router.PrefixRoute("files", filesPrefix, Files(root, store)),
		router.ExactRoute("user-agent", "/user-agent", UserAgent),
		router.PrefixRoute("echo", echoPrefix, Echo),
		router.ExactRoute("root", "/", Root),
	}
}

// NewRouter returns a router over Routes with NotFound as fallback
func NewRouter(root files.Root, store files.Store) *router.Router {
	return router.New(NotFound, Routes(root, store)...)
}
