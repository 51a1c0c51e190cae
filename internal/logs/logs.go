package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hackgods/consultation-scheduling/internal/config"
)

// New builds the process logger: stdout plus an optional rotating file,
// JSON outside dev or when asked for.
func New(cfg config.Config, service string) *slog.Logger {
	return slog.New(newHandler(cfg, os.Stdout)).With(
		slog.String("service", service),
		slog.String("env", cfg.Env),
	)
}

func newHandler(cfg config.Config, stdout io.Writer) slog.Handler {
	isDev := strings.EqualFold(cfg.Env, "dev")

	writers := []io.Writer{stdout}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}

	w := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.LogLevel),
		AddSource: isDev,
	}
	if strings.EqualFold(cfg.LogFormat, "json") || !isDev {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
