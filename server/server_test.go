package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/handlers"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/router"
	"github.com/nczempin/httpd-go-uring/transport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestServer starts a server over the stdlib listener and returns its address
func setupTestServer(t *testing.T, r *router.Router, limits protocol.Limits) string {
	ln, err := transport.ListenNet("tcp", "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := NewHttpServer(r, limits, discardLogger())
	go func() {
		done <- srv.Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return after cancel")
		}
	})

	return ln.Addr()
}

func setupRouter(t *testing.T) *router.Router {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("Hello, World!"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	root, err := files.NewRoot(dir)
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return handlers.NewRouter(root, files.OSStore{})
}

// roundTrip sends raw, half-closes if asked, and reads until the server closes
func roundTrip(t *testing.T, addr, raw string, halfClose bool) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("Failed to write request: %v", err)
	}
	if halfClose {
		conn.(*net.TCPConn).CloseWrite()
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return string(resp)
}

func TestHttpServer_EndToEnd(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{})

	tests := []struct {
		name      string
		raw       string
		halfClose bool
		want      string
	}{
		{"root", "GET / HTTP/1.1\r\n\r\n", false, "HTTP/1.1 200 OK\r\n\r\n"},
		{
			"echo",
			"GET /echo/abc HTTP/1.1\r\nHost: localhost\r\n\r\n", false,
			"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 3\r\n\r\nabc",
		},
		{
			"user agent",
			"GET /user-agent HTTP/1.1\r\nHost: localhost:4221\r\nUser-Agent: foobar/1.2.3\r\n\r\n", false,
			"HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 12\r\n\r\nfoobar/1.2.3",
		},
		{
			"file",
			"GET /files/hello.txt HTTP/1.1\r\n\r\n", false,
			"HTTP/1.1 200 OK\r\nContent-Type: application/octet-stream\r\nContent-Length: 13\r\n\r\nHello, World!",
		},
		{"missing file", "GET /files/missing HTTP/1.1\r\n\r\n", false, "HTTP/1.1 404 Not Found\r\n\r\n"},
		{"unknown", "GET /unknown HTTP/1.1\r\n\r\n", false, "HTTP/1.1 404 Not Found\r\n\r\n"},
		{"invalid utf-8", "GET /\xff HTTP/1.1\r\n\r\n", false, "HTTP/1.1 400 Bad Request\r\n\r\n"},
		{"no request line terminator", "GET /", true, "HTTP/1.1 400 Bad Request\r\n\r\n"},
		{"partial headers", "GET /echo/partial HTTP/1.1\r\nHost: x", true, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 7\r\n\r\npartial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundTrip(t, addr, tt.raw, tt.halfClose); got != tt.want {
				t.Errorf("response = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHttpServer_Idempotent(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{})
	raw := "GET /echo/same HTTP/1.1\r\nUser-Agent: x\r\n\r\n"

	first := roundTrip(t, addr, raw, false)
	second := roundTrip(t, addr, raw, false)
	if first != second {
		t.Errorf("Responses differ: %q vs %q", first, second)
	}
}

func TestHttpServer_TooLarge(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{MaxMessageSize: 256})

	raw := "GET / HTTP/1.1\r\nContent-Length: 100000\r\n\r\n"
	if got := roundTrip(t, addr, raw, false); got != "HTTP/1.1 413 Payload Too Large\r\n\r\n" {
		t.Errorf("Expected 413, got %q", got)
	}
}

func TestHttpServer_MaxContentLength(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{})

	raw := "GET / HTTP/1.1\r\nContent-Length: 9223372036854775807\r\n\r\n"
	if got := roundTrip(t, addr, raw, false); got != "HTTP/1.1 413 Payload Too Large\r\n\r\n" {
		t.Errorf("Expected 413, got %q", got)
	}
	// The server is still up
	if got := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n", false); got != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("Expected 200 after oversized request, got %q", got)
	}
}

func TestHttpServer_BodyAcrossWrites(t *testing.T) {
	var gotBody []byte
	var mu sync.Mutex
	r := router.New(handlers.NotFound, router.ExactRoute("body", "/body", func(req *protocol.HttpRequest) *protocol.HttpResponse {
		mu.Lock()
		gotBody = req.Body
		mu.Unlock()
		return protocol.NewResponse(protocol.StatusOK)
	}))
	addr := setupTestServer(t, r, protocol.Limits{ReadBufferSize: 16})

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	body := strings.Repeat("z", 300)
	fmt.Fprintf(conn, "GET /body HTTP/1.1\r\nContent-Length: %d\r\n\r\n", len(body))
	for i := 0; i < len(body); i += 100 {
		time.Sleep(10 * time.Millisecond)
		conn.Write([]byte(body[i : i+100]))
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	if string(resp) != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("Unexpected response %q", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if string(gotBody) != body {
		t.Errorf("Handler saw %d body bytes, want %d", len(gotBody), len(body))
	}
}

func TestHttpServer_PanicIsolated(t *testing.T) {
	r := router.New(handlers.NotFound,
		router.ExactRoute("boom", "/boom", func(*protocol.HttpRequest) *protocol.HttpResponse {
			panic("boom")
		}),
		router.ExactRoute("root", "/", handlers.Root),
	)
	addr := setupTestServer(t, r, protocol.Limits{})

	if got := roundTrip(t, addr, "GET /boom HTTP/1.1\r\n\r\n", false); got != "HTTP/1.1 500 Internal Server Error\r\n\r\n" {
		t.Errorf("Expected 500, got %q", got)
	}
	if got := roundTrip(t, addr, "GET / HTTP/1.1\r\n\r\n", false); got != "HTTP/1.1 200 OK\r\n\r\n" {
		t.Errorf("Server stopped serving after panic, got %q", got)
	}
}

func TestHttpServer_Concurrent(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{})

	const clients = 32
	var wg sync.WaitGroup
	errs := make(chan string, clients)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("client%d", i)
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errs <- err.Error()
				return
			}
			defer conn.Close()
			fmt.Fprintf(conn, "GET /echo/%s HTTP/1.1\r\n\r\n", text)
			resp, _ := io.ReadAll(conn)
			if !bytes.HasSuffix(resp, []byte("\r\n\r\n"+text)) {
				errs <- fmt.Sprintf("client %d got %q", i, resp)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

func TestHttpServer_SilentClose(t *testing.T) {
	addr := setupTestServer(t, setupRouter(t), protocol.Limits{})

	// Connect and leave without sending; no response is written
	if got := roundTrip(t, addr, "", true); got != "" {
		t.Errorf("Expected no response, got %q", got)
	}
}

// scriptedTransport feeds a fixed request and records the response
type scriptedTransport struct {
	in      *bytes.Reader
	out     bytes.Buffer
	closed  bool
	failOut bool
}

func (s *scriptedTransport) Read(buf []byte) (int, error) {
	n, err := s.in.Read(buf)
	if err == io.EOF {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "closed", nil)
	}
	return n, err
}

func (s *scriptedTransport) Write(buf []byte) (int, error) {
	if s.failOut {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "peer reset", nil)
	}
	return s.out.Write(buf)
}

func (s *scriptedTransport) Close() error {
	s.closed = true
	return nil
}

func TestServeTransport(t *testing.T) {
	var logs bytes.Buffer
	srv := NewHttpServer(setupRouter(t), protocol.Limits{}, slog.New(slog.NewTextHandler(&logs, nil)))

	st := &scriptedTransport{in: bytes.NewReader([]byte("GET /echo/hi HTTP/1.1\r\n\r\n"))}
	srv.ServeTransport(st)

	if st.out.String() != "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi" {
		t.Errorf("Unexpected response %q", st.out.String())
	}
	if !st.closed {
		t.Error("Transport was not closed")
	}
	if !strings.Contains(logs.String(), "target=/echo/hi") {
		t.Errorf("Expected access line, got %q", logs.String())
	}
}

func TestServeTransport_ContentLengthOverflow(t *testing.T) {
	srv := NewHttpServer(setupRouter(t), protocol.Limits{}, discardLogger())

	for _, cl := range []string{"9223372036854775807", "9223372036854775800", "1048577"} {
		raw := "GET / HTTP/1.1\r\nContent-Length: " + cl + "\r\n\r\n"
		st := &scriptedTransport{in: bytes.NewReader([]byte(raw))}
		srv.ServeTransport(st)

		if want := "HTTP/1.1 413 Payload Too Large\r\n\r\n"; st.out.String() != want {
			t.Errorf("Content-Length %s: expected %q, got %q", cl, want, st.out.String())
		}
	}
}

func TestServeTransport_WriteFailure(t *testing.T) {
	srv := NewHttpServer(setupRouter(t), protocol.Limits{}, discardLogger())

	st := &scriptedTransport{in: bytes.NewReader([]byte("GET / HTTP/1.1\r\n\r\n")), failOut: true}
	srv.ServeTransport(st)

	if !st.closed {
		t.Error("Transport was not closed after a failed write")
	}
}

func TestServe_ReturnsOnListenerClose(t *testing.T) {
	ln, err := transport.ListenNet("tcp", "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- NewHttpServer(setupRouter(t), protocol.Limits{}, discardLogger()).Serve(context.Background(), ln)
	}()

	time.Sleep(20 * time.Millisecond)
	ln.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after listener close")
	}
}

func BenchmarkServeTransport(b *testing.B) {
	srv := NewHttpServer(router.New(handlers.NotFound, handlers.Routes(files.Root{}, files.OSStore{})...), protocol.Limits{}, discardLogger())
	raw := []byte("GET /echo/benchmark HTTP/1.1\r\nUser-Agent: bench\r\n\r\n")

	for i := 0; i < b.N; i++ {
		srv.ServeTransport(&scriptedTransport{in: bytes.NewReader(raw)})
	}
}
