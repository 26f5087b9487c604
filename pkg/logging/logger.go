package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var (
	mu      sync.RWMutex
	current *slog.Logger
	file    *os.File
)

// LogLevel is a level name as written in the [log] section of the config.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

var slogLevels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// ParseLevel accepts a level name in any case. The empty string is INFO.
func ParseLevel(s string) (LogLevel, error) {
	l := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if l == "" {
		return LevelInfo, nil
	}
	if _, ok := slogLevels[l]; !ok {
		return "", errors.Newf("unknown log level %q", s)
	}
	return l, nil
}

type Config struct {
	Level      LogLevel
	OutputPath string    // appended to; stdout when empty
	Format     string    // "json" or "text"
	Writer     io.Writer // takes precedence over OutputPath
}

func (c Config) handler(w io.Writer) (slog.Handler, error) {
	level, ok := slogLevels[c.Level]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, errors.Newf("unknown log format %q", c.Format)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	return f, errors.Wrap(err, "open log file")
}

// Init installs the process logger. It fails if one is already installed;
// Close it first.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return errors.New("logger already initialized; call Close first")
	}

	w := cfg.Writer
	var f *os.File
	if w == nil {
		w = os.Stdout
		if cfg.OutputPath != "" {
			var err error
			if f, err = openLogFile(cfg.OutputPath); err != nil {
				return err
			}
			w = f
		}
	}

	h, err := cfg.handler(w)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return err
	}
	current, file = slog.New(h), f
	return nil
}

// Close uninstalls the logger and closes its file, if any. Calling it with no
// logger installed is a no-op.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	current = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// GetLogger returns the installed logger. Before Init, or after Close, it
// installs a WARN level text logger on stderr.
func GetLogger() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return current
}
