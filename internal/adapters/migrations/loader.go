package migrations

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
	"gopkg.in/yaml.v3"
)

// fileNamePattern matches "2_deploy_contracts.yaml"
var fileNamePattern = regexp.MustCompile(`^(\d+)_([A-Za-z0-9_\-]+)\.ya?ml$`)

// Loader reads numbered migration files from a directory
type Loader struct {
	dir string
	log *slog.Logger
}

// NewLoader creates a loader for the configured migrations directory
func NewLoader(cfg *config.RuntimeConfig, log *slog.Logger) *Loader {
	return &Loader{
		dir: cfg.MigrationsDir,
		log: log.With("component", "MigrationLoader"),
	}
}

// LoadMigrations returns every migration sorted by number
func (l *Loader) LoadMigrations(ctx context.Context) ([]*models.Migration, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("migrations directory not found: %s", l.dir)
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []*models.Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			l.log.Debug("ignoring file in migrations directory", "file", entry.Name())
			continue
		}

		number, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("%w: bad migration number in %s", domain.ErrInvalidMigration, entry.Name())
		}
		if other, ok := seen[number]; ok {
			return nil, fmt.Errorf("%w: %s and %s share number %d", domain.ErrInvalidMigration, other, entry.Name(), number)
		}
		seen[number] = entry.Name()

		path := filepath.Join(l.dir, entry.Name())
		migration, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		migration.Number = number
		migration.Name = match[2]
		migration.Path = path
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Number < migrations[j].Number
	})
	return migrations, nil
}

// ParseFile parses a single migration file
func ParseFile(path string) (*models.Migration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration file: %w", err)
	}

	migration, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return migration, nil
}

// Parse decodes migration YAML. Unknown keys are rejected so typos surface early.
func Parse(data []byte) (*models.Migration, error) {
	var migration models.Migration

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&migration); err != nil {
		if errors.Is(err, io.EOF) {
			return &migration, nil
		}
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", domain.ErrInvalidMigration, err)
	}

	return &migration, nil
}

var _ usecase.MigrationLoader = (*Loader)(nil)
