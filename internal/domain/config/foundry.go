package config

// FoundryConfig represents the parts of foundry.toml the migrator reads
type FoundryConfig struct {
	Profile      map[string]ProfileConfig `toml:"profile"`
	RpcEndpoints map[string]string        `toml:"rpc_endpoints"`
}

// ProfileConfig represents a profile's foundry configuration
type ProfileConfig struct {
	SrcPath string         `toml:"src,omitempty"`
	OutPath string         `toml:"out,omitempty"`
	Migrate *MigrateConfig `toml:"migrate,omitempty"`
}

// MigrateConfig is the [profile.<name>.migrate] section
type MigrateConfig struct {
	Migrations string `toml:"migrations,omitempty"`
	Artifacts  string `toml:"artifacts,omitempty"`
	PrivateKey string `toml:"private_key,omitempty"` //nolint:gosec // holds env var reference, not a literal secret
	TxTimeout  string `toml:"tx_timeout,omitempty"`
}

// OutPath returns the configured artifacts directory for a profile, if any
func (c *FoundryConfig) OutPath(profile string) string {
	if c == nil {
		return ""
	}
	if p, ok := c.Profile[profile]; ok && p.OutPath != "" {
		return p.OutPath
	}
	if p, ok := c.Profile["default"]; ok {
		return p.OutPath
	}
	return ""
}

// MigrateSection returns the migrate section for a profile, falling back to default
func (c *FoundryConfig) MigrateSection(profile string) *MigrateConfig {
	if c == nil {
		return nil
	}
	if p, ok := c.Profile[profile]; ok && p.Migrate != nil {
		return p.Migrate
	}
	if p, ok := c.Profile["default"]; ok && p.Migrate != nil {
		return p.Migrate
	}
	return nil
}
