package observability

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	// File enables a rotating log file next to stderr. Empty means stderr only.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SetupLogging points the default logger at stderr and, when configured,
// a rotating file. The returned closer releases the file.
func SetupLogging(cfg LogConfig) io.Closer {
	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

// Logger returns a logger sharing the default output with a component prefix.
func Logger(component string) *log.Logger {
	return log.New(log.Writer(), "["+component+"] ", log.LstdFlags|log.Lmsgprefix)
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
