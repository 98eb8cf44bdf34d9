package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/logging"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/router"
	"github.com/nczempin/httpd-go-uring/transport"
)

const maxAcceptBackoff = time.Second

// HttpServer answers exactly one request per connection
type HttpServer struct {
	router *router.Router
	limits protocol.Limits
	logger *slog.Logger
}

// NewHttpServer creates a server dispatching through r
func NewHttpServer(r *router.Router, limits protocol.Limits, logger *slog.Logger) *HttpServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HttpServer{
		router: r,
		limits: limits,
		logger: logger,
	}
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed, handling each one on its own goroutine. It returns once every
// connection it started has finished.
func (s *HttpServer) Serve(ctx context.Context, l transport.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		if d, ok := l.(transport.Destroyer); ok {
			d.Destroy()
		}
	}()

	var backoff time.Duration
	for {
		t, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.IsTransport(err, errors.TransportErrorConnectionClosed) {
				return nil
			}

			// Resource exhaustion (EMFILE and friends) would otherwise spin
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			s.logger.Warn("accept failed", "error", err, "retry_in", backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ServeTransport(t)
		}()
	}
}

// ServeTransport reads one request from t, answers it and closes t
func (s *HttpServer) ServeTransport(t transport.Transport) {
	start := time.Now()
	defer t.Close()

	proto := protocol.NewHttp1Protocol(t, s.limits)

	var resp *protocol.HttpResponse
	req, err := proto.ReadRequest()
	switch {
	case err == nil:
		resp = s.dispatch(req)
	case errors.IsProtocol(err, errors.ProtocolErrorMessageTooLarge):
		resp = protocol.NewResponse(protocol.StatusPayloadTooLarge)
	case errors.IsProtocol(err, errors.ProtocolErrorNone):
		resp = protocol.NewResponse(protocol.StatusBadRequest)
	default:
		// Peer went away before sending anything
		s.logger.Debug("no request read", "remote", transport.RemoteAddr(t), "error", err)
		return
	}

	if err := proto.WriteResponse(resp); err != nil {
		s.logger.Warn("failed to write response",
			"remote", transport.RemoteAddr(t),
			"status", resp.StatusCode,
			"error", err,
		)
		return
	}

	method, target := "-", "-"
	if req != nil {
		method, target = req.Method, req.Target
	} else {
		s.logger.Debug("rejected request", "remote", transport.RemoteAddr(t), "error", err)
	}

	s.logger.Info("request",
		"method", method,
		"target", target,
		logging.Status(resp.StatusCode),
		"bytes", len(resp.Body),
		"remote", transport.RemoteAddr(t),
		"duration", time.Since(start),
	)
}

// dispatch runs the router, turning a handler panic into a 500
func (s *HttpServer) dispatch(req *protocol.HttpRequest) (resp *protocol.HttpResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "target", req.Target, "panic", fmt.Sprint(r))
			resp = protocol.NewResponse(protocol.StatusInternalServerError)
		}
	}()

	resp = s.router.Serve(req)
	if resp == nil {
		s.logger.Error("handler returned no response", "target", req.Target)
		resp = protocol.NewResponse(protocol.StatusInternalServerError)
	}
	return resp
}
