package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

// NewLogger builds a text or JSON slog logger writing to w
func NewLogger(c Config, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// SetupLogger installs the default slog logger. With LOG_FILE set, logs go
// to a rotating file and gin's request log follows them. The returned closer
// flushes the file.
func SetupLogger(c Config) (io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if c.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogMaxBackups,
			MaxAge:     c.LogMaxAge,
			Compress:   true,
		}
		out, closer = rotating, rotating
		gin.DefaultWriter = rotating
	}

	logger, err := NewLogger(c, out)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}
