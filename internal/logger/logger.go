package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ecoguardians/energy-settlement/internal/config"
)

// NewLogger builds the process-wide slog.Logger. Output is JSON on stdout so
// log shippers can parse it without extra configuration. Every line carries
// the service name and environment when they are configured.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the log volume while debugging.
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("service", cfg.Application.Name)
	}
	if cfg.Application.Env != "" {
		logger = logger.With("env", cfg.Application.Env)
	}

	logger.Info("Logger initialized", "level", level.String())

	return logger
}
