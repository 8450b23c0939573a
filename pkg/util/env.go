package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvWithLocalBinFallback returns the value of the named environment
// variable. When the variable is missing it first tries to populate the
// environment from $HOME/.local/bin/.env (non-overwriting), then re-reads
// the variable.
func LoadEnvWithLocalBinFallback(envName string) (string, error) {
	if v := os.Getenv(envName); v != "" {
		return v, nil
	}

	home, err := os.UserHomeDir()
	var envPath string
	if err == nil && home != "" {
		envPath = filepath.Join(home, ".local", "bin", ".env")
		if info, statErr := os.Stat(envPath); statErr == nil && !info.IsDir() {
			// godotenv.Load never overrides variables that are already set.
			_ = godotenv.Load(envPath)
		}
	}

	if v := os.Getenv(envName); v != "" {
		return v, nil
	}

	if envPath == "" {
		return "", fmt.Errorf("environment variable %q not set and home directory unresolved", envName)
	}
	return "", fmt.Errorf("environment variable %q not set; attempted fallback file %s", envName, envPath)
}
