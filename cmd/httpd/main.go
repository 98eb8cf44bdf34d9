package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nczempin/httpd-go-uring/client"
	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/files"
	"github.com/nczempin/httpd-go-uring/handlers"
	"github.com/nczempin/httpd-go-uring/logging"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/transport"
)

const usage = `usage: httpd [serve] [flags]
       httpd probe [--addr host:port] [--target /path]

Run "httpd serve -h" for the full flag list.
`

const probeUserAgent = "httpd-probe"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve(ctx, args, getenv, stderr)
	case "probe":
		return probe(args, getenv, stdout, stderr)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
}

func loadConfig(name string, args []string, getenv func(string) string, stderr io.Writer) (config.Config, int, bool) {
	cfg, err := config.Load(name, args, getenv, stderr)
	if stderrors.Is(err, flag.ErrHelp) {
		return cfg, 0, false
	}
	if err != nil {
		fmt.Fprintf(stderr, "httpd: %v\n", err)
		return cfg, 2, false
	}
	return cfg, 0, true
}

func serve(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	cfg, code, ok := loadConfig("httpd serve", args, getenv, stderr)
	if !ok {
		return code
	}

	logger, err := logging.New(stderr, cfg.Logging())
	if err != nil {
		fmt.Fprintf(stderr, "httpd: %v\n", err)
		return 2
	}
	slog.SetDefault(logger)

	var root files.Root
	if cfg.Directory != "" {
		root, err = files.NewRoot(cfg.Directory)
		if err != nil {
			logger.Error("invalid directory", "directory", cfg.Directory, "error", err)
			return 1
		}
	} else {
		logger.Warn("no --directory given, /files/ requests will be answered with 404")
	}

	ln, err := transport.Listen(cfg.Backend, cfg.Addr, cfg.ReadTimeout)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.Addr, "backend", cfg.Backend, "error", err)
		return 1
	}

	store := fileStore(ln)
	srv := server.NewHttpServer(handlers.NewRouter(root, store), cfg.Limits(), logger)

	logger.Info("listening",
		"addr", ln.Addr(),
		"backend", cfg.Backend,
		"directory", root.Path(),
		"store", fmt.Sprintf("%T", store),
	)

	if err := srv.Serve(ctx, ln); err != nil {
		logger.Error("server stopped", "error", err)
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}

func probe(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, code, ok := loadConfig("httpd probe", args, getenv, stderr)
	if !ok {
		return code
	}

	c, err := client.Dial(cfg.Addr, 5*time.Second)
	if err != nil {
		fmt.Fprintf(stderr, "httpd: %v\n", err)
		return 1
	}
	defer c.Close()

	resp, err := c.Get(protocol.NewRequest(protocol.MethodGet, cfg.Target,
		protocol.HttpHeader{Key: "User-Agent", Value: probeUserAgent},
	))
	if err != nil {
		fmt.Fprintf(stderr, "httpd: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%d %s (%d bytes)\n", resp.StatusCode, resp.Reason, len(resp.Body))
	if resp.StatusCode != protocol.StatusOK {
		return 1
	}
	return 0
}
