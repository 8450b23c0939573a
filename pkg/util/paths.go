package util

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	appNameMu sync.RWMutex
	appName   = "dwarfbot"
)

// SetAppName changes the name used to derive config, data and log paths.
// Call it before anything else touches the filesystem.
func SetAppName(name string) {
	name = sanitizeName(name)
	if name == "" {
		return
	}
	appNameMu.Lock()
	appName = name
	appNameMu.Unlock()
}

// AppName returns the current application name.
func AppName() string {
	appNameMu.RLock()
	defer appNameMu.RUnlock()
	return appName
}

func sanitizeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	return "."
}

// ConfigDirPath returns the base configuration directory (~/.config/<app>).
func ConfigDirPath() string {
	if override := os.Getenv("DWARFBOT_CONFIG_DIR"); override != "" {
		return override
	}
	return filepath.Join(homeDir(), ".config", AppName())
}

// DataDirPath returns the directory holding the JSON stores.
func DataDirPath() string {
	return filepath.Join(ConfigDirPath(), "data")
}

// LogDirPath returns the directory holding rotating log files.
func LogDirPath() string {
	return filepath.Join(ConfigDirPath(), "logs")
}

// ChannelsFilePath returns the path of the association store file.
func ChannelsFilePath() string {
	return filepath.Join(DataDirPath(), "channels.json")
}

// GuildsFilePath returns the path of the guild settings store file.
func GuildsFilePath() string {
	return filepath.Join(DataDirPath(), "guilds.json")
}

// AuditDBPath returns the path of the SQLite audit database.
func AuditDBPath() string {
	return filepath.Join(DataDirPath(), "audit.db")
}

// EnsureDataDirs creates the data and log directories.
func EnsureDataDirs() error {
	if err := os.MkdirAll(DataDirPath(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(LogDirPath(), 0o755)
}
