package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot   string
	DataDir       string
	ArtifactsDir  string
	MigrationsDir string

	// Context settings
	Namespace   string
	NetworkName string
	Network     *Network // nil until resolved

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration
	TxTimeout      time.Duration
	DryRun         bool

	// Deployer key, hex encoded
	PrivateKey string

	// Resolved configurations
	FoundryConfig *FoundryConfig
}

// Network represents network configuration
type Network struct {
	ChainID uint64 `json:"chainId"`
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
}

// DevelopmentChainIDs are local chains where broadcasting needs no confirmation
var DevelopmentChainIDs = map[uint64]bool{
	1337:  true, // ganache
	31337: true, // anvil, hardhat
}

// IsDevelopment reports whether the network is a local development chain
func (n *Network) IsDevelopment() bool {
	return n != nil && DevelopmentChainIDs[n.ChainID]
}
