package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Logger zerolog.Logger

// Init builds the process logger. When LOG_FILE is set, entries are also
// appended to that file as JSON lines so /logs can serve them back.
// The returned func closes the file sink.
func Init() func() {
	var w io.Writer = os.Stdout
	closeFn := func() {}

	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				InitWithWriter(os.Stdout, f)
				return func() { _ = f.Close() }
			}
		}
	}

	InitWithWriter(w)
	return closeFn
}

// InitWithWriter configures the console/json writer on w and mirrors raw JSON to extra sinks.
func InitWithWriter(w io.Writer, extra ...io.Writer) {
	// ---- level ----
	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	// ---- format ----
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT")) // "json" or "console"
	if format == "" {
		format = "console"
	}

	timeFormat := strings.TrimSpace(os.Getenv("LOG_TIME_FORMAT"))
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	var primary io.Writer = w
	if format != "json" {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: timeFormat,
		}
		if strings.TrimSpace(os.Getenv("LOG_COLOR")) == "0" {
			cw.NoColor = true
		}
		primary = cw
	}

	var base zerolog.Logger
	if len(extra) > 0 {
		writers := append([]io.Writer{primary}, extra...)
		base = zerolog.New(zerolog.MultiLevelWriter(writers...))
	} else {
		base = zerolog.New(primary)
	}

	l := base.With().Timestamp().Logger().Level(level)

	if strings.TrimSpace(os.Getenv("LOG_CALLER")) == "1" {
		l = l.With().Caller().Logger()
	}

	Logger = l
	zlog.Logger = Logger
}
