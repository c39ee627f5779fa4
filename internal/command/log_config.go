package command

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/joeycumines/nudi/internal/config"
	"github.com/joeycumines/nudi/internal/logging"
)

// logConfig holds resolved logging configuration for commands that run the
// script host.
type logConfig struct {
	level      slog.Level
	logFile    io.WriteCloser // nil if no file logging
	bufferSize int
}

// resolveLogConfig resolves log configuration from flags and config. Flag
// values take precedence when set. The caller must call close.
func resolveLogConfig(flagPath, flagLevel string, cfg *config.Config) (logConfig, error) {
	var lc logConfig

	levelStr := flagLevel
	if levelStr == "" {
		levelStr = cfg.GetString("log.level")
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return lc, err
	}
	lc.level = level

	lc.bufferSize = cfg.GetInt("log.buffer-size")

	logPath := flagPath
	if logPath == "" {
		logPath = cfg.GetString("log.file")
	}
	if logPath != "" {
		maxSizeMB := cfg.GetInt("log.max-size-mb")
		if maxSizeMB <= 0 {
			maxSizeMB = 10
		}
		// Zero maxFiles is valid: rotation truncates without keeping backups.
		maxFiles := cfg.GetInt("log.max-files")
		if maxFiles < 0 {
			maxFiles = 5
		}
		w, err := logging.NewRotatingFileWriter(logPath, maxSizeMB, maxFiles)
		if err != nil {
			return lc, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		lc.logFile = w
	}
	return lc, nil
}

func (lc logConfig) logger() *logging.Logger {
	opts := logging.Options{Level: lc.level, BufferSize: lc.bufferSize}
	if lc.logFile != nil {
		opts.File = lc.logFile
	}
	return logging.New(opts)
}

func (lc logConfig) close() {
	if lc.logFile != nil {
		_ = lc.logFile.Close()
	}
}

// printRecent writes the most recent buffered records to w.
func printRecent(w io.Writer, logger *logging.Logger, n int) {
	entries := logger.Buffer().Recent(n)
	if len(entries) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "Recent log records:")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "  %s %-5s %s", e.Time.Format("15:04:05.000"), e.Level, e.Message)
		for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
			_, _ = fmt.Fprintf(w, " %s=%s", k, e.Attrs[k])
		}
		_, _ = fmt.Fprintln(w)
	}
}
