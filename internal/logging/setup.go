// Package logging wires up the process-wide slog logger. Grounded on
// cmd/sand/main.go's initSlog (JSON handler writing to a file chosen
// by log level/path flags), generalized to rotate the file through
// lumberjack instead of truncating it on every run - the daemon is
// long-lived, unlike the teacher's one-shot CLI invocations.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger. Zero value is a sane default: info
// level, JSON to stderr.
type Options struct {
	Level   string // debug|info|warn|error
	LogFile string // empty means stderr, no rotation
}

func parseLevel(level string) slog.Level {
	switch level {
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

// Setup installs a JSON slog logger as the process default and returns
// it. When LogFile is set, output is rotated via lumberjack (100MB per
// file, 5 backups, 28 days) instead of growing unbounded, since a
// wallpaper daemon is expected to run for weeks between restarts.
func Setup(opts Options) (*slog.Logger, error) {
	var logger *slog.Logger

	if opts.LogFile == "" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0o755); err != nil {
			return nil, err
		}
		writer := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
		}
		logger = slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
	}

	slog.SetDefault(logger)
	return logger, nil
}
