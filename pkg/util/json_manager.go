package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONManager handles reading and writing a JSON document to a single file.
// All writes rewrite the file in full, pretty-printed; a mutex serializes
// access so concurrent handlers in the process cannot interleave
// read-modify-write cycles at the file level.
type JSONManager struct {
	filePath string
	mu       sync.RWMutex
}

// NewJSONManager creates a manager for the given file path.
func NewJSONManager(filePath string) *JSONManager {
	return &JSONManager{filePath: filePath}
}

// Path returns the managed file path.
func (m *JSONManager) Path() string { return m.filePath }

// Load reads the JSON file and unmarshals it into data. A missing file is
// not an error; data is left untouched.
func (m *JSONManager) Load(data any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fileData, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(fileData, data); err != nil {
		return fmt.Errorf("failed to unmarshal json: %w", err)
	}

	return nil
}

// Save marshals data and writes the file, creating parent directories as
// needed.
func (m *JSONManager) Save(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(m.filePath, fileData, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
