package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

const (
	DefaultNetwork       = "local"
	DefaultNamespace     = "default"
	DefaultMigrationsDir = "migrations"
	DataDirName          = ".treb"
	DefaultTxTimeout     = 5 * time.Minute
)

// projectMarkers identify the root of a contracts project
var projectMarkers = []string{"foundry.toml", "truffle-config.js", "truffle.js"}

// artifactDirCandidates are probed in order when no artifacts dir is configured
var artifactDirCandidates = []string{"out", filepath.Join("build", "contracts")}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadEnvFiles(projectRoot)

	foundryConfig, err := loadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		Namespace:      v.GetString("namespace"),
		NetworkName:    v.GetString("network"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		TxTimeout:      v.GetDuration("tx_timeout"),
		DryRun:         v.GetBool("dry_run"),
		FoundryConfig:  foundryConfig,
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.NetworkName == "" {
		cfg.NetworkName = DefaultNetwork
	}

	section := foundryConfig.MigrateSection(cfg.Namespace)

	cfg.PrivateKey = firstNonEmpty(
		v.GetString("private_key"),
		os.Getenv("PRIVATE_KEY"),
		sectionValue(section, func(s *config.MigrateConfig) string { return s.PrivateKey }),
	)

	if cfg.TxTimeout == 0 && section != nil && section.TxTimeout != "" {
		d, err := time.ParseDuration(section.TxTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid tx_timeout %q in foundry.toml: %w", section.TxTimeout, err)
		}
		cfg.TxTimeout = d
	}
	if cfg.TxTimeout == 0 {
		cfg.TxTimeout = DefaultTxTimeout
	}

	cfg.MigrationsDir = resolvePath(projectRoot, firstNonEmpty(
		v.GetString("migrations_dir"),
		sectionValue(section, func(s *config.MigrateConfig) string { return s.Migrations }),
		DefaultMigrationsDir,
	))

	artifactsDir := firstNonEmpty(
		v.GetString("artifacts_dir"),
		sectionValue(section, func(s *config.MigrateConfig) string { return s.Artifacts }),
		foundryConfig.OutPath(cfg.Namespace),
	)
	if artifactsDir == "" {
		artifactsDir = detectArtifactsDir(projectRoot)
	}
	cfg.ArtifactsDir = resolvePath(projectRoot, artifactsDir)

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find a project marker file
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a contracts project (none of %s found)", strings.Join(projectMarkers, ", "))
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up config file
	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	// Set up environment variables
	v.SetEnvPrefix("TREB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("network", DefaultNetwork)
	v.SetDefault("timeout", "10m")
	v.SetDefault("tx_timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		})
	}

	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sectionValue(section *config.MigrateConfig, get func(*config.MigrateConfig) string) string {
	if section == nil {
		return ""
	}
	return get(section)
}

func resolvePath(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}

func detectArtifactsDir(projectRoot string) string {
	for _, candidate := range artifactDirCandidates {
		if info, err := os.Stat(filepath.Join(projectRoot, candidate)); err == nil && info.IsDir() {
			return candidate
		}
	}
	return artifactDirCandidates[0]
}
