// Package logging builds the logrus loggers used by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/psi-indicator-engine/internal/domain"
)

// New creates a logger writing to stderr. An unknown level falls back to info.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.ToLower(format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}
	return logger
}

// FromConfig creates a logger from the logging section. Output is stdout,
// stderr or a file path opened for append. The returned closer releases the
// file, if any.
func FromConfig(cfg domain.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := New(cfg.Level, cfg.Format)

	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		return logger, nopCloser{}, nil
	case "stdout":
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
