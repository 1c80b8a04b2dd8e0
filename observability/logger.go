// Package observability builds the process logger.
package observability

import (
	"io"
	"log/slog"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"github.com/sfunderbots/robocore/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a slog logger writing to console in the configured format.
// When cfg.LogFile is set, records are also written as JSON to a rotating
// file. The returned closer releases the file and is safe to call when no
// file is configured.
func NewLogger(cfg config.LoggerConfig, console io.Writer) (*slog.Logger, io.Closer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(console, opts)
	} else {
		handler = slog.NewTextHandler(console, opts)
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		// lumberjack handles file rotation and thread-safe writes.
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(file, opts))
		closer = file
	}

	logger := slog.New(handler)
	if cfg.ServiceName != "" {
		logger = logger.With("service", cfg.ServiceName)
	}
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
