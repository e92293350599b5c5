package client

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"canvas/internal/config"
)

func streamDebugEnabled() bool {
	return strings.TrimSpace(os.Getenv("CANVAS_STREAM_DEBUG")) == "1"
}

var (
	streamLogger     *log.Logger
	streamLoggerOnce sync.Once
)

func streamDebugLogger() *log.Logger {
	if !streamDebugEnabled() {
		return nil
	}
	streamLoggerOnce.Do(func() {
		path, err := config.StreamDebugLogPath()
		if err != nil || path == "" {
			path = filepath.Join(os.TempDir(), "canvas-stream.log")
		}
		_ = os.MkdirAll(filepath.Dir(path), 0o700)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			streamLogger = log.New(os.Stderr, "stream ", log.LstdFlags)
			return
		}
		streamLogger = log.New(file, "stream ", log.LstdFlags)
	})
	return streamLogger
}

func streamLogf(format string, args ...any) {
	logger := streamDebugLogger()
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}
