package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

func newTestMigrationStateStore(t *testing.T) *MigrationStateStoreAdapter {
	t.Helper()
	cfg := &config.RuntimeConfig{
		DataDir: filepath.Join(t.TempDir(), ".treb"),
	}
	return NewMigrationStateStoreAdapter(cfg)
}

func TestMigrationStateStore_LoadEmpty(t *testing.T) {
	store := newTestMigrationStateStore(t)

	state, err := store.Load(context.Background(), "default", 31337)
	require.NoError(t, err)
	assert.Equal(t, "default", state.Namespace)
	assert.Equal(t, uint64(31337), state.ChainID)
	assert.Zero(t, state.LastCompleted)
	assert.Nil(t, state.Current)
}

func TestMigrationStateStore_SaveAndLoad(t *testing.T) {
	store := newTestMigrationStateStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	state := &models.MigrationState{
		Namespace:     "default",
		ChainID:       31337,
		LastCompleted: 1,
		Current: &models.MigrationRun{
			Number:     2,
			Name:       "deploy_contracts",
			Status:     models.RunStatusFailed,
			StartedAt:  now,
			UpdatedAt:  now,
			Deployed:   map[string]string{"AddressSet": "default/31337/AddressSet"},
			FailedStep: "IdentityRegistry",
			Error:      "execution reverted",
		},
		History: []models.MigrationRun{
			{Number: 1, Name: "initial_migration", Status: models.RunStatusCompleted, StartedAt: now, UpdatedAt: now},
		},
	}
	require.NoError(t, store.Save(ctx, state))
	assert.FileExists(t, store.statePath)

	loaded, err := store.Load(ctx, "default", 31337)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.LastCompleted)
	require.NotNil(t, loaded.Current)
	assert.Equal(t, models.RunStatusFailed, loaded.Current.Status)
	assert.Equal(t, "IdentityRegistry", loaded.Current.FailedStep)
	assert.Equal(t, map[string]string{"AddressSet": "default/31337/AddressSet"}, loaded.Current.Deployed)
	assert.True(t, loaded.Current.StartedAt.Equal(now))
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "initial_migration", loaded.History[0].Name)
}

func TestMigrationStateStore_KeysByNamespaceAndChain(t *testing.T) {
	store := newTestMigrationStateStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.MigrationState{Namespace: "default", ChainID: 31337, LastCompleted: 2}))
	require.NoError(t, store.Save(ctx, &models.MigrationState{Namespace: "default", ChainID: 11155111, LastCompleted: 1}))
	require.NoError(t, store.Save(ctx, &models.MigrationState{Namespace: "staging", ChainID: 31337}))

	tests := []struct {
		namespace string
		chainID   uint64
		expected  int
	}{
		{"default", 31337, 2},
		{"default", 11155111, 1},
		{"staging", 31337, 0},
		{"production", 1, 0},
	}
	for _, tt := range tests {
		state, err := store.Load(ctx, tt.namespace, tt.chainID)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, state.LastCompleted, models.StateKey(tt.namespace, tt.chainID))
	}
}

func TestMigrationStateStore_CorruptFile(t *testing.T) {
	store := newTestMigrationStateStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.statePath), 0755))
	require.NoError(t, os.WriteFile(store.statePath, []byte("not json"), 0644))

	_, err := store.Load(context.Background(), "default", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse migration state file")

	err = store.Save(context.Background(), &models.MigrationState{Namespace: "default", ChainID: 1})
	assert.Error(t, err)
}
