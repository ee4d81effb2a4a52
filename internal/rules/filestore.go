package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the rule configuration as a JSON file. The rule
// nesting is keyed by user-visible names, which are case sensitive, so the
// file goes through encoding/json directly rather than the viper layer
// used for application settings (viper lowercases map keys).
type FileStore struct {
	path string
}

// NewFileStore binds a store to a file path. The file does not have to
// exist yet; the first Save creates it.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Load() (*Config, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &config, nil
}

func (fs *FileStore) Save(config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	dir := filepath.Dir(fs.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(fs.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
