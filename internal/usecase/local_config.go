package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config     *config.LocalConfig
	ConfigPath string
	Exists     bool

	// Values in effect for this invocation, after flags and environment
	Namespace string
	Network   string
}

// ShowConfig is a use case for showing configuration
type ShowConfig struct {
	config *config.RuntimeConfig
	store  LocalConfigStore
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig, store LocalConfigStore) *ShowConfig {
	return &ShowConfig{config: cfg, store: store}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	exists := uc.store.Exists()

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &ShowConfigResult{
		Config:     local,
		ConfigPath: uc.store.GetPath(),
		Exists:     exists,
		Namespace:  uc.config.Namespace,
		Network:    uc.config.NetworkName,
	}, nil
}

// ConfigChangeResult describes a set or remove of a local config key
type ConfigChangeResult struct {
	UpdatedConfig *config.LocalConfig
	ConfigPath    string
	Key           config.ConfigKey
	Value         string // new value for set, removed value for remove
}

// SetConfig is a use case for setting configuration values
type SetConfig struct {
	store    LocalConfigStore
	resolver NetworkResolver
}

// NewSetConfig creates a new SetConfig use case
func NewSetConfig(store LocalConfigStore, resolver NetworkResolver) *SetConfig {
	return &SetConfig{store: store, resolver: resolver}
}

// Run stores value under key. Network names must be configured in foundry.toml.
func (uc *SetConfig) Run(ctx context.Context, key, value string) (*ConfigChangeResult, error) {
	normalizedKey, err := parseConfigKey(key)
	if err != nil {
		return nil, err
	}

	if value == "" {
		return nil, fmt.Errorf("value for %s cannot be empty", normalizedKey)
	}
	if normalizedKey == config.ConfigKeyNetwork {
		networks := uc.resolver.GetNetworks(ctx)
		if !lo.Contains(networks, value) {
			return nil, fmt.Errorf("unknown network %q, available: %s", value, strings.Join(networks, ", "))
		}
	}

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	switch normalizedKey {
	case config.ConfigKeyNamespace:
		local.Namespace = value
	case config.ConfigKeyNetwork:
		local.Network = value
	}

	if err := uc.store.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return &ConfigChangeResult{
		UpdatedConfig: local,
		ConfigPath:    uc.store.GetPath(),
		Key:           normalizedKey,
		Value:         value,
	}, nil
}

// RemoveConfig is a use case for resetting configuration values to their defaults
type RemoveConfig struct {
	store LocalConfigStore
}

// NewRemoveConfig creates a new RemoveConfig use case
func NewRemoveConfig(store LocalConfigStore) *RemoveConfig {
	return &RemoveConfig{store: store}
}

// Run executes the remove config use case
func (uc *RemoveConfig) Run(ctx context.Context, key string) (*ConfigChangeResult, error) {
	if !uc.store.Exists() {
		return nil, fmt.Errorf("no config file found at %s", uc.store.GetPath())
	}

	normalizedKey, err := parseConfigKey(key)
	if err != nil {
		return nil, err
	}

	local, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	defaults := config.DefaultLocalConfig()
	var removed string
	switch normalizedKey {
	case config.ConfigKeyNamespace:
		removed, local.Namespace = local.Namespace, defaults.Namespace
	case config.ConfigKeyNetwork:
		removed, local.Network = local.Network, defaults.Network
	}

	if err := uc.store.Save(ctx, local); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	return &ConfigChangeResult{
		UpdatedConfig: local,
		ConfigPath:    uc.store.GetPath(),
		Key:           normalizedKey,
		Value:         removed,
	}, nil
}

func parseConfigKey(key string) (config.ConfigKey, error) {
	key = strings.ToLower(key)
	if config.IsValidConfigKey(key) {
		return config.NormalizeConfigKey(key), nil
	}

	validKeys := lo.Map(config.ValidConfigKeys(), func(k config.ConfigKey, _ int) string {
		if k == config.ConfigKeyNamespace {
			return string(k) + " (ns)"
		}
		return string(k)
	})
	return "", fmt.Errorf("unknown config key: %s\nAvailable keys: %s", key, strings.Join(validKeys, ", "))
}
