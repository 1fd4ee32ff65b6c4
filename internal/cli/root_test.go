package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChainServer answers eth_chainId with the anvil chain id
func newChainServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "eth_chainId" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x7a69"})
	}))
	t.Cleanup(server.Close)
	return server
}

func writeProjectFile(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

// setupProject creates a foundry project with a two contract migration and enters it
func setupProject(t *testing.T) {
	t.Helper()
	color.NoColor = true
	root := t.TempDir()
	server := newChainServer(t)

	writeProjectFile(t, root, "foundry.toml", `[profile.default]
src = "src"
out = "out"

[rpc_endpoints]
local = "`+server.URL+`"
`)
	writeProjectFile(t, root, "out/Token.sol/Token.json", `{"abi": [], "bytecode": {"object": "0x6001600c60003960016000f300", "linkReferences": {}}}`)
	writeProjectFile(t, root, "out/Vault.sol/Vault.json", `{
  "abi": [{"type": "constructor", "inputs": [{"name": "token", "type": "address"}], "stateMutability": "nonpayable"}],
  "bytecode": {"object": "0x6001600c60003960016000f300", "linkReferences": {}}
}`)
	writeProjectFile(t, root, "migrations/1_deploy_vault.yaml", `description: Token and vault
contracts:
  - name: Token
  - name: Vault
    args: ["@Token"]
report: [Vault]
`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--non-interactive"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	cmd := NewRootCmd()

	groups := map[string]string{}
	for _, sub := range cmd.Commands() {
		groups[sub.Name()] = sub.GroupID
	}

	assert.Equal(t, map[string]string{
		"migrate":  "main",
		"plan":     "main",
		"status":   "main",
		"list":     "main",
		"show":     "main",
		"networks": "management",
		"config":   "management",
		"version":  "",
	}, groups)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "treb-migrate version dev")
}

func TestPlanCommand(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "plan")
	require.NoError(t, err)

	assert.Contains(t, out, "Network:   local (chain 31337)")
	assert.Contains(t, out, "Namespace: default")
	assert.Contains(t, out, "Migration plan: 2 contracts")
	assert.Contains(t, out, "1_deploy_vault")
	assert.Contains(t, out, "  1. Token\n")
	assert.Contains(t, out, "  2. Vault (depends on: Token)\n")
}

func TestMigrateDryRun(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "migrate", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Migration plan: 2 contracts")
	assert.Contains(t, out, "Dry run, no transactions were sent")
	assert.NotContains(t, out, "Address is")
	assert.NoFileExists(t, filepath.Join(".treb", "deployments.json"))
}

func TestMigrateRejectsInvertedWindow(t *testing.T) {
	setupProject(t)

	_, err := execute(t, "migrate", "--from", "3", "--to", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from 3 is after --to 1")
}

func TestConfigCommands(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "config.local.json yet")

	out, err = execute(t, "config", "set", "ns", "staging")
	require.NoError(t, err)
	assert.Contains(t, out, "Set namespace to staging")

	_, err = execute(t, "config", "set", "network", "mainnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown network "mainnet"`)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Regexp(t, `namespace\s+staging\s+staging`, out)

	out, err = execute(t, "config", "remove", "namespace")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset namespace to default")
}

func TestListEmptyRegistry(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No deployments found")
}
