package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/logging"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

const (
	DefaultAddr   = "127.0.0.1:4221"
	DefaultTarget = "/"
)

const (
	helpTextDirectory   = "directory served under /files/"
	helpTextAddr        = "listen address, host:port or unix:/path"
	helpTextBackend     = "connection I/O backend: net, iouring or uring"
	helpTextReadBuffer  = "bytes requested per transport read"
	helpTextMaxRequest  = "largest request accepted, in bytes"
	helpTextReadTimeout = "per-read deadline, 0 waits forever (net backend only)"
	helpTextLogLevel    = "debug, info, warn or error"
	helpTextLogFormat   = "text or json"
	helpTextNoColor     = "disable colored status codes"
	helpTextTarget      = "request target for probe"
)

// Config holds everything the executable needs
type Config struct {
	Directory      string
	Addr           string
	Backend        transport.Backend
	ReadBufferSize int
	MaxRequestSize int
	ReadTimeout    time.Duration
	LogLevel       string
	LogFormat      string
	NoColor        bool

	// Target is only used by probe
	Target string
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		Backend:        transport.BackendNet,
		ReadBufferSize: protocol.DefaultReadBufferSize,
		MaxRequestSize: protocol.DefaultMaxMessageSize,
		LogLevel:       "info",
		LogFormat:      logging.FormatText,
		Target:         DefaultTarget,
	}
}

// Load builds a Config from defaults, then the environment, then args.
// getenv may be nil. Usage output goes to output.
func Load(name string, args []string, getenv func(string) string, output io.Writer) (Config, error) {
	cfg := Default()
	if getenv != nil {
		if err := cfg.applyEnv(getenv); err != nil {
			return Config{}, err
		}
	}

	var backend string
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Directory, "directory", cfg.Directory, helpTextDirectory)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, helpTextAddr)
	fs.StringVar(&backend, "backend", string(cfg.Backend), helpTextBackend)
	fs.IntVar(&cfg.ReadBufferSize, "read-buffer", cfg.ReadBufferSize, helpTextReadBuffer)
	fs.IntVar(&cfg.MaxRequestSize, "max-request", cfg.MaxRequestSize, helpTextMaxRequest)
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, helpTextReadTimeout)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, helpTextLogLevel)
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, helpTextLogFormat)
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, helpTextNoColor)
	fs.StringVar(&cfg.Target, "target", cfg.Target, helpTextTarget)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.NewInvalidArgumentError(fmt.Sprintf("unexpected argument %q", fs.Arg(0)))
	}
	cfg.Backend = transport.Backend(backend)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("HTTPD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("HTTPD_DIRECTORY"); v != "" {
		c.Directory = v
	}
	if v := getenv("HTTPD_BACKEND"); v != "" {
		c.Backend = transport.Backend(v)
	}
	if v := getenv("HTTPD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("HTTPD_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("HTTPD_MAX_REQUEST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewInvalidArgumentError("HTTPD_MAX_REQUEST is not a number: " + v)
		}
		c.MaxRequestSize = n
	}
	if getenv("NO_COLOR") != "" {
		c.NoColor = true
	}
	return nil
}

// Validate rejects values the server cannot start with
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.NewInvalidArgumentError("address is required")
	}
	if _, ok := transport.ParseBackend(string(c.Backend)); !ok {
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown backend %q", c.Backend))
	}
	if c.ReadBufferSize <= 0 {
		return errors.NewInvalidArgumentError("read buffer size must be positive")
	}
	if c.MaxRequestSize <= 0 {
		return errors.NewInvalidArgumentError("max request size must be positive")
	}
	if c.ReadTimeout < 0 {
		return errors.NewInvalidArgumentError("read timeout cannot be negative")
	}
	if c.ReadTimeout > 0 && c.Backend != transport.BackendNet {
		return errors.NewInvalidArgumentError("read timeout is only supported by the net backend")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !logging.ValidFormat(c.LogFormat) {
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown log format %q", c.LogFormat))
	}
	if c.Target == "" {
		return errors.NewInvalidArgumentError("target is required")
	}
	return nil
}

// Limits returns the reader limits derived from the config
func (c Config) Limits() protocol.Limits {
	return protocol.Limits{
		ReadBufferSize: c.ReadBufferSize,
		MaxMessageSize: c.MaxRequestSize,
	}
}

// Logging returns the logger options derived from the config
func (c Config) Logging() logging.Options {
	return logging.Options{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		NoColor: c.NoColor,
	}
}
