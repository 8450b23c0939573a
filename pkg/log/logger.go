package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dwarflabs/dwarfbot/pkg/util"
	"gopkg.in/natefinch/lumberjack.v2"
)

// The bot writes three log streams: application lifecycle, Discord events,
// and errors. Each stream goes to its own rotating file under the app log
// directory and is mirrored to the console.

type loggers struct {
	application *slog.Logger
	discord     *slog.Logger
	errors      *slog.Logger
	files       []*lumberjack.Logger
}

var (
	mu     sync.RWMutex
	global *loggers
)

func newRotatingFile(dir, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
}

// SetupLogger initializes the global loggers. Safe to call more than once;
// later calls replace the previous writers.
func SetupLogger() error {
	logDir := util.LogDirPath()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}

	appFile := newRotatingFile(logDir, "application.log")
	discordFile := newRotatingFile(logDir, "discord_events.log")
	errorFile := newRotatingFile(logDir, "error.log")

	l := &loggers{
		application: slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, appFile), nil)),
		discord:     slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, discordFile), nil)),
		errors:      slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, errorFile), nil)),
		files:       []*lumberjack.Logger{appFile, discordFile, errorFile},
	}

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

func current() *loggers {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	// Console-only fallback for tests and early startup.
	fallback := &loggers{
		application: slog.New(slog.NewTextHandler(os.Stdout, nil)),
		discord:     slog.New(slog.NewTextHandler(os.Stdout, nil)),
		errors:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	mu.Lock()
	if global == nil {
		global = fallback
	}
	l = global
	mu.Unlock()
	return l
}

// ApplicationLogger returns the logger for application lifecycle events.
func ApplicationLogger() *slog.Logger { return current().application }

// DiscordLogger returns the logger for Discord gateway and API events.
func DiscordLogger() *slog.Logger { return current().discord }

// ErrorLoggerRaw returns the error stream logger.
func ErrorLoggerRaw() *slog.Logger { return current().errors }

// Sync closes the rotating file writers. Called on shutdown.
func Sync() {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return
	}
	for _, f := range l.files {
		_ = f.Close()
	}
}
