package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scentline/pkg/config"
)

// RequestLogger is the logger instance for HTTP requests.
var RequestLogger *slog.Logger

// Init initializes the logging system based on configuration.
// It returns a cleanup function to close log files.
func Init(cfg *config.LogConfig) (func(), error) {
	// Rotate log files at startup
	rotatePaths(cfg.Server.Path, cfg.Requests.Path)

	var closers []io.Closer

	// Server logger: stdout + file
	serverHandler, serverFile, err := setupHandler(cfg.Server.Path, cfg.Server.Level, true)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	if serverFile != nil {
		closers = append(closers, serverFile)
	}
	slog.SetDefault(slog.New(serverHandler))

	// Request logger: file only
	requestHandler, requestFile, err := setupHandler(cfg.Requests.Path, cfg.Requests.Level, false)
	if err != nil {
		if serverFile != nil {
			serverFile.Close()
		}
		return nil, fmt.Errorf("failed to setup requests logger: %w", err)
	}
	if requestFile != nil {
		closers = append(closers, requestFile)
	}
	RequestLogger = slog.New(requestHandler)

	return func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

func setupHandler(path, levelStr string, stdout bool) (slog.Handler, *os.File, error) {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = file
	if stdout {
		w = io.MultiWriter(os.Stdout, file)
	}

	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}), file, nil
}

// rotatePaths moves existing log files aside so each run starts fresh.
func rotatePaths(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = os.Rename(path, path+".old")
	}
}
