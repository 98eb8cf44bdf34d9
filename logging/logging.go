package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/nczempin/httpd-go-uring/errors"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New
type Options struct {
	Level   string
	Format  string
	NoColor bool
}

var (
	statusOK          = color.New(color.FgGreen)
	statusClientError = color.New(color.FgYellow)
	statusServerError = color.New(color.FgRed)
)

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, errors.NewInvalidArgumentError("unknown log level " + name)
	}
	return level, nil
}

// ValidFormat reports whether name is a supported handler format
func ValidFormat(name string) bool {
	return name == FormatText || name == FormatJSON
}

// New builds a logger writing to w.
// Status colors are turned off for JSON output, when asked to, or when w
// is not a terminal.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch opts.Format {
	case FormatText, "":
		handler = slog.NewTextHandler(w, handlerOpts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, errors.NewInvalidArgumentError("unknown log format " + opts.Format)
	}

	// Last logger built decides, so a terminal logger after a piped one colors again
	color.NoColor = opts.NoColor || opts.Format == FormatJSON || !isTerminal(w)

	return slog.New(handler), nil
}

var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Status renders a status code for an access line: 2xx green, 4xx yellow,
// 5xx red. Plain digits when color is off.
func Status(code int) slog.Attr {
	var c *color.Color
	switch {
	case code >= 200 && code < 300:
		c = statusOK
	case code >= 400 && code < 500:
		c = statusClientError
	case code >= 500:
		c = statusServerError
	}

	if c == nil || color.NoColor {
		return slog.Int("status", code)
	}
	return slog.String("status", c.Sprint(code))
}
