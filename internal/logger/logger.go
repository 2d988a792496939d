package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process logger. Console output goes to stderr so stdout
// stays free for tool output.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Config holds logger configuration
type Config struct {
	Level          string    // debug, info, warn, error
	File           string    // optional log file, appended to
	Console        bool      // write to Out
	Pretty         bool      // human readable console format
	Redaction      bool      // scrub secrets before writing
	RedactPatterns []string  // extra regular expressions to scrub
	Out            io.Writer // console destination, stderr when nil
}

// New builds the logger and installs it as the global zerolog logger used
// by the tool executor and sandbox.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var redactor *Redactor
	if cfg.Redaction {
		redactor, err = NewRedactor(cfg.RedactPatterns...)
		if err != nil {
			return nil, err
		}
	}

	l := &Logger{}
	writers := make([]io.Writer, 0, 2)

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		if cfg.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		writers = append(writers, out)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, l.file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}
	if redactor != nil {
		writer = redactor.Wrap(writer)
	}

	l.Logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	log.Logger = l.Logger

	return l, nil
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// GetZerolog returns the underlying zerolog.Logger for injection into
// components that tag their own loggers
func (l *Logger) GetZerolog() zerolog.Logger {
	return l.Logger
}
