package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// LocalConfigFile holds the per-checkout namespace and network defaults
const LocalConfigFile = "config.local.json"

// LocalConfigStoreAdapter keeps the local config in the data directory.
// Keys it does not know about are carried through saves untouched.
type LocalConfigStoreAdapter struct {
	path string
	mu   sync.Mutex
}

// NewLocalConfigStoreAdapter creates a new LocalConfigStoreAdapter
func NewLocalConfigStoreAdapter(cfg *config.RuntimeConfig) *LocalConfigStoreAdapter {
	return &LocalConfigStoreAdapter{path: filepath.Join(cfg.DataDir, LocalConfigFile)}
}

// Exists reports whether the config file has been written
func (s *LocalConfigStoreAdapter) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// readRaw returns the file's top-level keys, or nil when there is no file
func (s *LocalConfigStoreAdapter) readRaw() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return raw, nil
}

// Load returns the stored config. A missing file or namespace yields the defaults.
func (s *LocalConfigStoreAdapter) Load(_ context.Context) (*config.LocalConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	local := config.DefaultLocalConfig()
	if raw == nil {
		return local, nil
	}
	for key, dst := range map[config.ConfigKey]*string{
		config.ConfigKeyNamespace: &local.Namespace,
		config.ConfigKeyNetwork:   &local.Network,
	} {
		value, ok := raw[string(key)]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, fmt.Errorf("invalid %s in %s: %w", key, LocalConfigFile, err)
		}
		if v != "" {
			*dst = v
		}
	}
	return local, nil
}

// Save writes local over the known keys of the file
func (s *LocalConfigStoreAdapter) Save(_ context.Context, local *config.LocalConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}

	raw[string(config.ConfigKeyNamespace)], _ = json.Marshal(local.Namespace)
	if local.Network == "" {
		delete(raw, string(config.ConfigKeyNetwork))
	} else {
		raw[string(config.ConfigKeyNetwork)], _ = json.Marshal(local.Network)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, s.path)
}

// GetPath returns the path to the config file
func (s *LocalConfigStoreAdapter) GetPath() string {
	return s.path
}

var _ usecase.LocalConfigStore = (*LocalConfigStoreAdapter)(nil)
