package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

const maxSuggestions = 3

// foundryArtifact is the subset of a forge output file we need
type foundryArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object         string                                       `json:"object"`
		LinkReferences map[string]map[string][]models.LinkReference `json:"linkReferences"`
	} `json:"bytecode"`
	Metadata struct {
		Settings struct {
			CompilationTarget map[string]string `json:"compilationTarget"`
		} `json:"settings"`
	} `json:"metadata"`
}

// truffleArtifact is the subset of a build/contracts file we need
type truffleArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
	SourcePath   string          `json:"sourcePath"`
}

// Repository indexes compiled artifacts from a Foundry out/ or Truffle build/contracts directory
type Repository struct {
	projectRoot  string
	artifactsDir string
	log          *slog.Logger

	mu      sync.RWMutex
	indexed bool
	byName  map[string][]*models.Artifact // contract name -> every artifact with that name
	byFQN   map[string]*models.Artifact   // "path:Name" -> artifact
}

// NewRepository creates a new artifact repository
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	return &Repository{
		projectRoot:  cfg.ProjectRoot,
		artifactsDir: cfg.ArtifactsDir,
		log:          log.With("component", "ArtifactRepository"),
	}
}

// Index walks the artifacts directory once
func (r *Repository) Index() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexed {
		return nil
	}

	r.byName = make(map[string][]*models.Artifact)
	r.byFQN = make(map[string]*models.Artifact)

	if _, err := os.Stat(r.artifactsDir); err != nil {
		return fmt.Errorf("artifacts directory %s not found, compile the project first: %w", r.artifactsDir, err)
	}

	err := filepath.WalkDir(r.artifactsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		artifact, err := r.parseArtifact(path)
		if err != nil {
			r.log.Debug("skipping artifact", "path", path, "error", err)
			return nil
		}
		if artifact != nil {
			r.add(artifact)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index artifacts: %w", err)
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "dir", r.artifactsDir, "count", len(r.byFQN))
	return nil
}

func (r *Repository) add(artifact *models.Artifact) {
	r.byName[artifact.Name] = append(r.byName[artifact.Name], artifact)
	r.byFQN[artifact.FullyQualifiedName()] = artifact
}

// parseArtifact returns nil for files that hold no deployable contract
func (r *Repository) parseArtifact(path string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	relPath, _ := filepath.Rel(r.projectRoot, path)

	// Truffle stores bytecode as a plain string next to contractName
	if _, ok := probe["contractName"]; ok {
		var ta truffleArtifact
		if err := json.Unmarshal(data, &ta); err != nil {
			return nil, err
		}
		if !hasCode(ta.Bytecode) {
			return nil, nil
		}
		sourcePath := ta.SourcePath
		if rel, err := filepath.Rel(r.projectRoot, sourcePath); err == nil && !strings.HasPrefix(rel, "..") {
			sourcePath = rel
		}
		return &models.Artifact{
			Name:       ta.ContractName,
			SourcePath: filepath.ToSlash(sourcePath),
			FilePath:   relPath,
			Format:     models.ArtifactFormatTruffle,
			ABI:        ta.ABI,
			Bytecode:   ta.Bytecode,
		}, nil
	}

	var fa foundryArtifact
	if err := json.Unmarshal(data, &fa); err != nil {
		return nil, err
	}
	if !hasCode(fa.Bytecode.Object) {
		return nil, nil
	}

	var name, source string
	for src, contract := range fa.Metadata.Settings.CompilationTarget {
		source, name = src, contract
	}
	if name == "" {
		// Without metadata fall back to the file name, e.g. out/Foo.sol/Foo.json
		name = strings.TrimSuffix(filepath.Base(path), ".json")
		if idx := strings.Index(name, "."); idx != -1 {
			name = name[:idx]
		}
		source = filepath.Base(filepath.Dir(path))
	}

	return &models.Artifact{
		Name:           name,
		SourcePath:     source,
		FilePath:       relPath,
		Format:         models.ArtifactFormatFoundry,
		ABI:            fa.ABI,
		Bytecode:       fa.Bytecode.Object,
		LinkReferences: fa.Bytecode.LinkReferences,
	}, nil
}

func hasCode(bytecode string) bool {
	return bytecode != "" && bytecode != "0x"
}

// GetArtifact resolves a contract name or "path:Name"
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if strings.Contains(name, ":") {
		if artifact, ok := r.byFQN[name]; ok {
			return artifact, nil
		}
		return nil, domain.ArtifactNotFoundErr{Name: name, Suggestions: r.suggest(name, r.fqns())}
	}

	candidates := r.byName[name]
	switch len(candidates) {
	case 0:
		return nil, domain.ArtifactNotFoundErr{Name: name, Suggestions: r.suggest(name, r.names())}
	case 1:
		return candidates[0], nil
	default:
		options := make([]string, len(candidates))
		for i, c := range candidates {
			options[i] = c.FullyQualifiedName()
		}
		sort.Strings(options)
		return nil, fmt.Errorf("multiple artifacts named %s, use one of: %s", name, strings.Join(options, ", "))
	}
}

// ListArtifacts returns every indexed artifact sorted by fully qualified name
func (r *Repository) ListArtifacts(ctx context.Context) ([]*models.Artifact, error) {
	if err := r.Index(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.fqns()
	out := make([]*models.Artifact, len(keys))
	for i, key := range keys {
		out[i] = r.byFQN[key]
	}
	return out, nil
}

func (r *Repository) names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Repository) fqns() []string {
	keys := make([]string, 0, len(r.byFQN))
	for key := range r.byFQN {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Repository) suggest(name string, options []string) []string {
	matches := fuzzy.Find(name, options)
	var suggestions []string
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		suggestions = append(suggestions, matches[i].Str)
	}
	if len(suggestions) > 0 {
		return suggestions
	}

	// fuzzy.Find needs every character in order; retry case-insensitively on a prefix
	lower := strings.ToLower(name)
	for _, option := range options {
		if len(suggestions) == maxSuggestions {
			break
		}
		if strings.HasPrefix(strings.ToLower(option), lower[:min(len(lower), 3)]) {
			suggestions = append(suggestions, option)
		}
	}
	return suggestions
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
