package usecase_test

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MockDeploymentRepository is a mock implementation of DeploymentRepository
type MockDeploymentRepository struct {
	mock.Mock
}

func (m *MockDeploymentRepository) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentRepository) GetDeploymentByAddress(ctx context.Context, chainID uint64, address string) (*models.Deployment, error) {
	args := m.Called(ctx, chainID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deployment), args.Error(1)
}

func (m *MockDeploymentRepository) ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]*models.Deployment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deployment), args.Error(1)
}

func (m *MockDeploymentRepository) SaveDeployment(ctx context.Context, deployment *models.Deployment) error {
	args := m.Called(ctx, deployment)
	return args.Error(0)
}

// MockNetworkResolver is a mock implementation of NetworkResolver
type MockNetworkResolver struct {
	mock.Mock
}

func (m *MockNetworkResolver) GetNetworks(ctx context.Context) []string {
	args := m.Called(ctx)
	return args.Get(0).([]string)
}

func (m *MockNetworkResolver) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*config.Network), args.Error(1)
}

// MockBlockchainChecker is a mock implementation of BlockchainChecker
type MockBlockchainChecker struct {
	mock.Mock
}

func (m *MockBlockchainChecker) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	return m.Called(ctx, rpcURL, chainID).Error(0)
}

func (m *MockBlockchainChecker) CheckDeploymentExists(ctx context.Context, address string) (bool, string, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.String(1), args.Error(2)
}

// MockProgressSink records progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
	errors []string
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(message string) {}

func (m *MockProgressSink) Error(message string) {
	m.errors = append(m.errors, message)
}

func (m *MockProgressSink) stages() []string {
	stages := make([]string, len(m.events))
	for i, e := range m.events {
		stages[i] = e.Stage
	}
	return stages
}

// staticLoader serves migrations from memory
type staticLoader struct {
	migrations []*models.Migration
	err        error
}

func (l *staticLoader) LoadMigrations(ctx context.Context) ([]*models.Migration, error) {
	return l.migrations, l.err
}

// memoryArtifacts serves artifacts from memory
type memoryArtifacts map[string]*models.Artifact

func (a memoryArtifacts) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if artifact, ok := a[name]; ok {
		return artifact, nil
	}
	return nil, domain.ArtifactNotFoundErr{Name: name}
}

func (a memoryArtifacts) ListArtifacts(ctx context.Context) ([]*models.Artifact, error) {
	out := make([]*models.Artifact, 0, len(a))
	for _, artifact := range a {
		out = append(out, artifact)
	}
	return out, nil
}

// memoryRegistry is an in-memory DeploymentRepository
type memoryRegistry struct {
	mu      sync.Mutex
	records map[string]models.Deployment
	saveErr error
}

func newMemoryRegistry(existing ...*models.Deployment) *memoryRegistry {
	r := &memoryRegistry{records: make(map[string]models.Deployment)}
	for _, d := range existing {
		r.records[d.ID] = *d
	}
	return r
}

func (r *memoryRegistry) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r *memoryRegistry) GetDeploymentByAddress(ctx context.Context, chainID uint64, address string) (*models.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.records {
		if d.ChainID == chainID && strings.EqualFold(d.Address, address) {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRegistry) ListDeployments(ctx context.Context, filter domain.DeploymentFilter) ([]*models.Deployment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Deployment
	for _, d := range r.records {
		if filter.Matches(&d) {
			copied := d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRegistry) SaveDeployment(ctx context.Context, d *models.Deployment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[d.ID] = *d
	return nil
}

// memoryState is an in-memory MigrationStateStore
type memoryState struct {
	states map[string]*models.MigrationState
	saves  int
}

func newMemoryState() *memoryState {
	return &memoryState{states: make(map[string]*models.MigrationState)}
}

func (s *memoryState) Load(ctx context.Context, namespace string, chainID uint64) (*models.MigrationState, error) {
	if st, ok := s.states[models.StateKey(namespace, chainID)]; ok {
		return st, nil
	}
	return &models.MigrationState{Namespace: namespace, ChainID: chainID}, nil
}

func (s *memoryState) Save(ctx context.Context, state *models.MigrationState) error {
	s.saves++
	s.states[models.StateKey(state.Namespace, state.ChainID)] = state
	return nil
}

// fakeLinker records which libraries were linked into which artifact
type fakeLinker struct {
	linked map[string]map[string]common.Address
}

func (l *fakeLinker) Link(artifact *models.Artifact, libraries map[string]common.Address) (string, error) {
	if l.linked == nil {
		l.linked = make(map[string]map[string]common.Address)
	}
	l.linked[artifact.Name] = libraries
	if len(artifact.MissingLibraries(lo.Keys(libraries))) > 0 {
		return "", domain.ErrUnlinkedBytecode
	}
	return "0x6080" + artifact.Name, nil
}

// deployCall is one observed Deploy call
type deployCall struct {
	Contract  string
	Args      []any
	Libraries map[string]common.Address
	Confirmed []string // contracts confirmed before this call was made
}

// fakeDeployer hands out sequential addresses and records call order
type fakeDeployer struct {
	linker    *fakeLinker
	failOn    string
	waitErr   error
	connected *config.Network
	closed    bool

	nonce     uint64
	calls     []deployCall
	confirmed []string
	byAddress map[common.Address]string
}

func (d *fakeDeployer) Connect(ctx context.Context, network *config.Network) error {
	d.connected = network
	d.byAddress = make(map[common.Address]string)
	return nil
}

func (d *fakeDeployer) Account() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000aa")
}

func (d *fakeDeployer) Deploy(ctx context.Context, req usecase.DeployRequest) (*usecase.PendingDeployment, error) {
	call := deployCall{
		Contract:  req.ContractName,
		Args:      req.Args,
		Confirmed: append([]string{}, d.confirmed...),
	}
	if d.linker != nil {
		call.Libraries = d.linker.linked[req.ContractName]
	}
	d.calls = append(d.calls, call)

	if req.ContractName == d.failOn {
		return nil, fmt.Errorf("execution reverted")
	}

	d.nonce++
	addr := common.BigToAddress(new(big.Int).SetUint64(0x1000 + d.nonce))
	d.byAddress[addr] = req.ContractName
	tx := types.NewContractCreation(d.nonce, big.NewInt(0), 100000, big.NewInt(1), []byte(req.Bytecode))
	return &usecase.PendingDeployment{Tx: tx, Address: addr}, nil
}

func (d *fakeDeployer) WaitDeployed(ctx context.Context, pending *usecase.PendingDeployment) (*usecase.DeployReceipt, error) {
	if d.waitErr != nil {
		return nil, d.waitErr
	}
	d.confirmed = append(d.confirmed, d.byAddress[pending.Address])
	return &usecase.DeployReceipt{Address: pending.Address, BlockNumber: d.nonce}, nil
}

func (d *fakeDeployer) Close() {
	d.closed = true
}

func (d *fakeDeployer) deployedOrder() []string {
	order := make([]string, len(d.calls))
	for i, c := range d.calls {
		order[i] = c.Contract
	}
	return order
}

// fakeConfirmer answers prompts with a fixed value
type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}
