package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MigrationStateFile holds migration progress for every namespace and chain
const MigrationStateFile = "migrations.json"

// MigrationStateStoreAdapter implements MigrationStateStore using the file system
type MigrationStateStoreAdapter struct {
	statePath string
	mu        sync.Mutex
}

// NewMigrationStateStoreAdapter creates a new MigrationStateStoreAdapter
func NewMigrationStateStoreAdapter(cfg *config.RuntimeConfig) *MigrationStateStoreAdapter {
	return &MigrationStateStoreAdapter{
		statePath: filepath.Join(cfg.DataDir, MigrationStateFile),
	}
}

func (s *MigrationStateStoreAdapter) readAll() (map[string]*models.MigrationState, error) {
	states := make(map[string]*models.MigrationState)

	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return states, nil
		}
		return nil, fmt.Errorf("failed to read migration state file: %w", err)
	}

	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to parse migration state file: %w", err)
	}
	if states == nil {
		states = make(map[string]*models.MigrationState)
	}
	return states, nil
}

// Load returns the state for a namespace and chain. Returns a fresh state if nothing was saved yet.
func (s *MigrationStateStoreAdapter) Load(_ context.Context, namespace string, chainID uint64) (*models.MigrationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.readAll()
	if err != nil {
		return nil, err
	}

	state, ok := states[models.StateKey(namespace, chainID)]
	if !ok {
		return &models.MigrationState{Namespace: namespace, ChainID: chainID}, nil
	}
	return state, nil
}

// Save writes the state, keeping the entries of other namespaces and chains
func (s *MigrationStateStoreAdapter) Save(_ context.Context, state *models.MigrationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, err := s.readAll()
	if err != nil {
		return err
	}
	states[models.StateKey(state.Namespace, state.ChainID)] = state

	if err := os.MkdirAll(filepath.Dir(s.statePath), 0755); err != nil {
		return fmt.Errorf("failed to create migration state directory: %w", err)
	}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal migration state: %w", err)
	}

	tmpPath := s.statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write migration state file: %w", err)
	}
	return os.Rename(tmpPath, s.statePath)
}

// Ensure MigrationStateStoreAdapter implements MigrationStateStore
var _ usecase.MigrationStateStore = (*MigrationStateStoreAdapter)(nil)
