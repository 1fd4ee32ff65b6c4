package deployments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

const (
	DeploymentsFile = "deployments.json"
	AddressBookFile = "registry.json"
)

// AddressBook is the flattened chain -> namespace -> contract -> address view
// written next to the deployments for consumption by scripts and frontends
type AddressBook map[uint64]map[string]map[string]string

// FileRepository stores deployments in JSON files under the data directory
type FileRepository struct {
	dataDir     string
	mu          sync.RWMutex
	deployments map[string]*models.Deployment
	byAddress   map[uint64]map[string]string
}

// NewFileRepository loads the registry kept in dataDir
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	r := &FileRepository{
		dataDir:     dataDir,
		deployments: make(map[string]*models.Deployment),
	}
	if err := r.load(); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return r, nil
}

// NewFileRepositoryFromConfig creates a FileRepository from RuntimeConfig
func NewFileRepositoryFromConfig(cfg *config.RuntimeConfig) (*FileRepository, error) {
	return NewFileRepository(cfg.DataDir)
}

func (r *FileRepository) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(r.dataDir, DeploymentsFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.deployments); err != nil {
			return fmt.Errorf("failed to parse %s: %w", DeploymentsFile, err)
		}
	}
	if r.deployments == nil {
		r.deployments = make(map[string]*models.Deployment)
	}

	r.rebuildLookups()
	return nil
}

func (r *FileRepository) rebuildLookups() {
	r.byAddress = make(map[uint64]map[string]string)
	for id, dep := range r.deployments {
		if dep.Address == "" {
			continue
		}
		if r.byAddress[dep.ChainID] == nil {
			r.byAddress[dep.ChainID] = make(map[string]string)
		}
		r.byAddress[dep.ChainID][strings.ToLower(dep.Address)] = id
	}
}

// addressBook only carries confirmed deployments
func (r *FileRepository) addressBook() AddressBook {
	book := make(AddressBook)
	for _, dep := range r.deployments {
		if !dep.IsDeployed() {
			continue
		}
		if book[dep.ChainID] == nil {
			book[dep.ChainID] = make(map[string]map[string]string)
		}
		if book[dep.ChainID][dep.Namespace] == nil {
			book[dep.ChainID][dep.Namespace] = make(map[string]string)
		}
		book[dep.ChainID][dep.Namespace][dep.ContractName] = dep.Address
	}
	return book
}

func (r *FileRepository) save() error {
	if err := r.saveFile(DeploymentsFile, r.deployments); err != nil {
		return fmt.Errorf("failed to save deployments: %w", err)
	}
	if err := r.saveFile(AddressBookFile, r.addressBook()); err != nil {
		return fmt.Errorf("failed to save address book: %w", err)
	}
	return nil
}

func (r *FileRepository) saveFile(filename string, v any) error {
	path := filepath.Join(r.dataDir, filename)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// GetDeployment retrieves a deployment by ID
func (r *FileRepository) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dep, exists := r.deployments[id]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return clone(dep), nil
}

// GetDeploymentByAddress retrieves a deployment by chain ID and address
func (r *FileRepository) GetDeploymentByAddress(ctx context.Context, chainID uint64, address string) (*models.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byAddress[chainID][strings.ToLower(address)]
	if !exists {
		return nil, fmt.Errorf("deployment at address %s not found on chain %d: %w", address, chainID, domain.ErrNotFound)
	}
	return clone(r.deployments[id]), nil
}

// ListDeployments retrieves deployments matching the filter
func (r *FileRepository) ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]*models.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Deployment
	for _, dep := range r.deployments {
		if filter.Matches(dep) {
			result = append(result, clone(dep))
		}
	}
	return result, nil
}

// SaveDeployment saves or updates a deployment and flushes the registry to disk
func (r *FileRepository) SaveDeployment(ctx context.Context, deployment *models.Deployment) error {
	if deployment.ID == "" {
		return fmt.Errorf("deployment has no id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous, existed := r.deployments[deployment.ID]
	r.deployments[deployment.ID] = clone(deployment)
	r.rebuildLookups()

	if err := r.save(); err != nil {
		if existed {
			r.deployments[deployment.ID] = previous
		} else {
			delete(r.deployments, deployment.ID)
		}
		r.rebuildLookups()
		return err
	}
	return nil
}

func clone(dep *models.Deployment) *models.Deployment {
	c := *dep
	if dep.Libraries != nil {
		c.Libraries = make(map[string]string, len(dep.Libraries))
		for k, v := range dep.Libraries {
			c.Libraries[k] = v
		}
	}
	return &c
}

var _ usecase.DeploymentRepository = (*FileRepository)(nil)
