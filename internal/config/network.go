package config

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

// DefaultLocalRPC is used for the "local" network when foundry.toml does not define it
const DefaultLocalRPC = "http://127.0.0.1:8545"

// NetworkResolver resolves network names to configurations with caching
type NetworkResolver struct {
	foundryConfig *config.FoundryConfig
	timeout       time.Duration
	cache         map[string]uint64 // rpcURL -> chainID
	mu            sync.RWMutex
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundryConfig *config.FoundryConfig) *NetworkResolver {
	return &NetworkResolver{
		foundryConfig: foundryConfig,
		timeout:       10 * time.Second,
		cache:         make(map[string]uint64),
	}
}

// ProvideNetworkResolver creates a NetworkResolver for Wire dependency injection
func ProvideNetworkResolver(cfg *config.RuntimeConfig) *NetworkResolver {
	return NewNetworkResolver(cfg.FoundryConfig)
}

// GetNetworks returns the configured network names, sorted
func (r *NetworkResolver) GetNetworks(ctx context.Context) []string {
	names := make([]string, 0, len(r.endpoints()))
	for name := range r.endpoints() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveNetwork resolves a network name to its configuration
func (r *NetworkResolver) ResolveNetwork(ctx context.Context, networkName string) (*config.Network, error) {
	rpcURL, exists := r.endpoints()[networkName]
	if !exists {
		return nil, fmt.Errorf("network '%s' not found in foundry.toml [rpc_endpoints]", networkName)
	}

	chainID, err := r.fetchChainID(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain ID for network %s: %w", networkName, err)
	}

	return &config.Network{
		Name:    networkName,
		RPCURL:  rpcURL,
		ChainID: chainID,
	}, nil
}

// endpoints returns the configured endpoints plus the implicit local network
func (r *NetworkResolver) endpoints() map[string]string {
	endpoints := make(map[string]string)
	if r.foundryConfig != nil {
		for name, url := range r.foundryConfig.RpcEndpoints {
			endpoints[name] = url
		}
	}
	if _, ok := endpoints[DefaultNetwork]; !ok {
		endpoints[DefaultNetwork] = DefaultLocalRPC
	}
	return endpoints
}

// fetchChainID asks the RPC endpoint for its chain ID
func (r *NetworkResolver) fetchChainID(ctx context.Context, rpcURL string) (uint64, error) {
	r.mu.RLock()
	if chainID, ok := r.cache[rpcURL]; ok {
		r.mu.RUnlock()
		return chainID, nil
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	defer client.Close()

	var result hexutil.Uint64
	if err := client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return 0, fmt.Errorf("eth_chainId failed: %w", err)
	}

	r.mu.Lock()
	r.cache[rpcURL] = uint64(result)
	r.mu.Unlock()

	return uint64(result), nil
}
