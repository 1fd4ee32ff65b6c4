package deployments

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

func newDeployment(chainID uint64, name, address string, status models.DeploymentStatus) *models.Deployment {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.Deployment{
		ID:           models.NewDeploymentID("default", chainID, name),
		Namespace:    "default",
		ChainID:      chainID,
		Migration:    "2_deploy_contracts",
		ContractName: name,
		Artifact:     name,
		Type:         models.SingletonDeployment,
		Status:       status,
		Address:      address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and reload", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".treb")
		repo, err := NewFileRepository(dir)
		require.NoError(t, err)

		dep := newDeployment(31337, "IdentityRegistry", "0x5FbDB2315678afecb367f032d93F642f64180aa3", models.DeploymentStatusDeployed)
		dep.Libraries = map[string]string{"AddressSet": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"}
		require.NoError(t, repo.SaveDeployment(ctx, dep))
		assert.FileExists(t, filepath.Join(dir, DeploymentsFile))

		reloaded, err := NewFileRepository(dir)
		require.NoError(t, err)
		got, err := reloaded.GetDeployment(ctx, dep.ID)
		require.NoError(t, err)
		assert.Equal(t, dep, got)
	})

	t.Run("updates replace the record", func(t *testing.T) {
		repo, err := NewFileRepository(t.TempDir())
		require.NoError(t, err)

		dep := newDeployment(31337, "ERC1056Resolver", "", models.DeploymentStatusPending)
		require.NoError(t, repo.SaveDeployment(ctx, dep))

		dep.Status = models.DeploymentStatusDeployed
		dep.Address = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
		require.NoError(t, repo.SaveDeployment(ctx, dep))

		all, err := repo.ListDeployments(ctx, domain.DeploymentFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, models.DeploymentStatusDeployed, all[0].Status)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo, err := NewFileRepository(t.TempDir())
		require.NoError(t, err)

		dep := newDeployment(1, "AddressSet", "0x01", models.DeploymentStatusDeployed)
		dep.Libraries = map[string]string{}
		require.NoError(t, repo.SaveDeployment(ctx, dep))

		dep.Address = "0x02"
		got, err := repo.GetDeployment(ctx, dep.ID)
		require.NoError(t, err)
		assert.Equal(t, "0x01", got.Address)

		got.Libraries["x"] = "y"
		again, err := repo.GetDeployment(ctx, dep.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Libraries)
	})

	t.Run("filters", func(t *testing.T) {
		repo, err := NewFileRepository(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(31337, "IdentityRegistry", "0x01", models.DeploymentStatusDeployed)))
		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(31337, "ERC1056Resolver", "", models.DeploymentStatusFailed)))
		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(1, "IdentityRegistry", "0x01", models.DeploymentStatusDeployed)))

		tests := []struct {
			name   string
			filter domain.DeploymentFilter
			count  int
		}{
			{"all", domain.DeploymentFilter{}, 3},
			{"by chain", domain.DeploymentFilter{ChainID: 31337}, 2},
			{"by status", domain.DeploymentFilter{Status: models.DeploymentStatusDeployed}, 2},
			{"by contract", domain.DeploymentFilter{ContractName: "ERC1056Resolver"}, 1},
			{"other namespace", domain.DeploymentFilter{Namespace: "staging"}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.ListDeployments(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, got, tt.count)
			})
		}
	})

	t.Run("lookup by address", func(t *testing.T) {
		repo, err := NewFileRepository(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(31337, "EthereumDIDRegistry", "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9", models.DeploymentStatusDeployed)))

		got, err := repo.GetDeploymentByAddress(ctx, 31337, "0xcf7ed3acca5a467e9e704c703e8d87f634fb0fc9")
		require.NoError(t, err)
		assert.Equal(t, "EthereumDIDRegistry", got.ContractName)

		_, err = repo.GetDeploymentByAddress(ctx, 1, "0xcf7ed3acca5a467e9e704c703e8d87f634fb0fc9")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("address book holds confirmed deployments only", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := NewFileRepository(dir)
		require.NoError(t, err)

		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(31337, "IdentityRegistry", "0x01", models.DeploymentStatusDeployed)))
		require.NoError(t, repo.SaveDeployment(ctx, newDeployment(31337, "ERC1056Resolver", "0x03", models.DeploymentStatusPending)))

		data, err := os.ReadFile(filepath.Join(dir, AddressBookFile))
		require.NoError(t, err)
		var book AddressBook
		require.NoError(t, json.Unmarshal(data, &book))
		assert.Equal(t, AddressBook{31337: {"default": {"IdentityRegistry": "0x01"}}}, book)
	})

	t.Run("missing id", func(t *testing.T) {
		repo, err := NewFileRepository(t.TempDir())
		require.NoError(t, err)
		assert.Error(t, repo.SaveDeployment(ctx, &models.Deployment{}))

		_, err = repo.GetDeployment(ctx, "default/1/Nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DeploymentsFile), []byte("{"), 0644))
		_, err := NewFileRepository(dir)
		assert.Error(t, err)
	})
}
