package artifacts

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

var libAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

const longLibrary = "IdentityRegistryAddressSetStorageLibrary"

func TestLinker(t *testing.T) {
	linker := NewLinker()
	libHex := "5fbdb2315678afecb367f032d93f642f64180aa3"
	fqn := "contracts/AddressSet.sol:AddressSet"

	tests := []struct {
		name     string
		artifact *models.Artifact
		libs     map[string]common.Address
		expected string
		wantErr  error
	}{
		{
			name: "foundry link references",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Bytecode: "0x6080" + HashedPlaceholder(fqn) + "00",
				LinkReferences: map[string]map[string][]models.LinkReference{
					"contracts/AddressSet.sol": {"AddressSet": {{Start: 2, Length: 20}}},
				},
			},
			libs:     map[string]common.Address{"AddressSet": libAddress},
			expected: "0x6080" + libHex + "00",
		},
		{
			name: "hashed placeholder appearing twice",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Bytecode: "0x60" + HashedPlaceholder(fqn) + "61" + HashedPlaceholder(fqn),
				LinkReferences: map[string]map[string][]models.LinkReference{
					"contracts/AddressSet.sol": {"AddressSet": {{Start: 1, Length: 20}, {Start: 22, Length: 20}}},
				},
			},
			libs:     map[string]common.Address{"AddressSet": libAddress},
			expected: "0x60" + libHex + "61" + libHex,
		},
		{
			name: "truffle legacy placeholder",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Format:   models.ArtifactFormatTruffle,
				Bytecode: "0x6080" + LegacyPlaceholder("AddressSet") + "00",
			},
			libs:     map[string]common.Address{"AddressSet": libAddress},
			expected: "0x6080" + libHex + "00",
		},
		{
			name: "legacy placeholder with path prefix",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Bytecode: "0x6080" + LegacyPlaceholder("AddressSet.sol:AddressSet") + "00",
			},
			libs:     map[string]common.Address{"AddressSet": libAddress},
			expected: "0x6080" + libHex + "00",
		},
		{
			name: "legacy placeholder cut short by a long library name",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Bytecode: "0x6080" + LegacyPlaceholder(longLibrary) + "00",
			},
			libs:     map[string]common.Address{longLibrary: libAddress, "AddressSet": common.HexToAddress("0x01")},
			expected: "0x6080" + libHex + "00",
		},
		{
			name:     "nothing to link",
			artifact: &models.Artifact{Name: "EthereumDIDRegistry", Bytecode: "0x6080"},
			expected: "0x6080",
		},
		{
			name: "missing library address",
			artifact: &models.Artifact{
				Name:     "IdentityRegistry",
				Bytecode: "0x6080" + LegacyPlaceholder("AddressSet") + "00",
			},
			libs:    map[string]common.Address{"Other": libAddress},
			wantErr: domain.ErrUnlinkedBytecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.artifact.Bytecode
			linked, err := linker.Link(tt.artifact, tt.libs)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, linked)
			assert.Equal(t, original, tt.artifact.Bytecode, "artifact must not be modified")
			assert.True(t, (&models.Artifact{Bytecode: linked}).IsLinked())
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Run("legacy placeholder is forty characters", func(t *testing.T) {
		assert.Len(t, LegacyPlaceholder("AddressSet"), 40)
		assert.Len(t, LegacyPlaceholder(strings.Repeat("X", 50)), 40)
		assert.True(t, strings.HasPrefix(LegacyPlaceholder("AddressSet"), "__AddressSet__"))
	})

	t.Run("hashed placeholder is forty characters", func(t *testing.T) {
		p := HashedPlaceholder("contracts/AddressSet.sol:AddressSet")
		assert.Len(t, p, 40)
		assert.True(t, strings.HasPrefix(p, "__$"))
		assert.True(t, strings.HasSuffix(p, "$__"))
	})

	t.Run("artifact reports required libraries", func(t *testing.T) {
		artifact := &models.Artifact{Bytecode: "0x60" + LegacyPlaceholder("AddressSet") + LegacyPlaceholder("Strings")}
		assert.False(t, artifact.IsLinked())
		assert.Equal(t, []string{"AddressSet", "Strings"}, artifact.Libraries())
	})
}
