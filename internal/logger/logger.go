// Package logger builds the process logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config configures the logger. File rotation settings only apply to file output.
type Config struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"LOG_COMPRESS"`
}

// DefaultConfig logs text to stderr so it does not mix with the terminal dashboard.
var DefaultConfig = Config{
	Level:      "info",
	Format:     FormatText,
	Output:     OutputStderr,
	File:       "logs/tickerwatch.log",
	MaxSizeMB:  100,
	MaxBackups: 10,
	MaxAgeDays: 30,
	Compress:   true,
}

// Validate checks level, format and output.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("log.format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	switch c.Output {
	case OutputStdout, OutputStderr:
	case OutputFile:
		if c.File == "" {
			return fmt.Errorf("log.file is required when log.output is %q", OutputFile)
		}
	default:
		return fmt.Errorf("log.output must be stdout, stderr or file, got %q", c.Output)
	}
	return nil
}

// New creates a logrus logger from cfg.
func New(cfg Config) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := logrus.New()
	level, _ := logrus.ParseLevel(cfg.Level)
	l.SetLevel(level)

	if cfg.Format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	out, err := output(cfg)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)
	return l, nil
}

func output(cfg Config) (io.Writer, error) {
	switch cfg.Output {
	case OutputStdout:
		return os.Stdout, nil
	case OutputFile:
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		return &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}, nil
	default:
		return os.Stderr, nil
	}
}
