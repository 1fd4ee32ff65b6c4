package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

// loadEnvFiles loads .env files from the project root so ${VAR} references expand
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				slog.Warn("failed to load env file", "file", envFile, "error", err)
			}
		}
	}
}

// loadFoundryConfig loads and parses foundry.toml, returning an empty config when absent
func loadFoundryConfig(projectRoot string) (*config.FoundryConfig, error) {
	cfg := &config.FoundryConfig{
		Profile:      make(map[string]config.ProfileConfig),
		RpcEndpoints: make(map[string]string),
	}

	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(foundryPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	if cfg.RpcEndpoints == nil {
		cfg.RpcEndpoints = make(map[string]string)
	}
	for name, url := range cfg.RpcEndpoints {
		cfg.RpcEndpoints[name] = os.ExpandEnv(url)
	}

	for name, profile := range cfg.Profile {
		if profile.Migrate != nil {
			profile.Migrate.PrivateKey = os.ExpandEnv(profile.Migrate.PrivateKey)
			cfg.Profile[name] = profile
		}
	}

	return cfg, nil
}
