package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

type rpcRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// newChainIDServer creates a JSON-RPC server that answers eth_chainId
func newChainIDServer(t *testing.T, chainIDHex string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode RPC request: %v", err)
			return
		}
		assert.Equal(t, "eth_chainId", req.Method)
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rpcResponse{Jsonrpc: "2.0", Result: chainIDHex, ID: req.ID})
	}))
}

func TestNetworkResolver(t *testing.T) {
	var calls int32
	server := newChainIDServer(t, "0xaa36a7", &calls)
	defer server.Close()

	resolver := NewNetworkResolver(&config.FoundryConfig{
		RpcEndpoints: map[string]string{"sepolia": server.URL},
	})
	ctx := context.Background()

	t.Run("lists configured networks plus local", func(t *testing.T) {
		assert.Equal(t, []string{"local", "sepolia"}, resolver.GetNetworks(ctx))
	})

	t.Run("resolves chain id and caches it", func(t *testing.T) {
		network, err := resolver.ResolveNetwork(ctx, "sepolia")
		require.NoError(t, err)
		assert.Equal(t, uint64(11155111), network.ChainID)
		assert.Equal(t, server.URL, network.RPCURL)

		_, err = resolver.ResolveNetwork(ctx, "sepolia")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("unknown network", func(t *testing.T) {
		_, err := resolver.ResolveNetwork(ctx, "mainnet")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found in foundry.toml")
	})
}
