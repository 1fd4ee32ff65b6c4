package models

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ReferencePrefix marks a constructor argument that resolves to another contract's address
const ReferencePrefix = "@"

// Migration is one numbered migration file
type Migration struct {
	Number      int            `yaml:"-" json:"number"`
	Name        string         `yaml:"-" json:"name"`
	Path        string         `yaml:"-" json:"path"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Contracts   []ContractSpec `yaml:"contracts" json:"contracts"`
	Report      []string       `yaml:"report,omitempty" json:"report,omitempty"`
}

// ContractSpec declares a single contract deployment inside a migration
type ContractSpec struct {
	Name      string   `yaml:"name" json:"name"`
	Artifact  string   `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	Libraries []string `yaml:"libraries,omitempty" json:"libraries,omitempty"`
	Args      []any    `yaml:"args,omitempty" json:"args,omitempty"`
}

// contractSpecKeys are the keys a contract entry may use
var contractSpecKeys = map[string]bool{"name": true, "artifact": true, "libraries": true, "args": true}

// UnmarshalYAML decodes a contract entry. Integer literals that do not fit in
// 64 bits are kept exact as *big.Int instead of being rounded through float64.
func (c *ContractSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: contract entry must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if key := node.Content[i].Value; !contractSpecKeys[key] {
			return fmt.Errorf("line %d: field %s not found in contract entry", node.Content[i].Line, key)
		}
	}

	var raw struct {
		Name      string      `yaml:"name"`
		Artifact  string      `yaml:"artifact"`
		Libraries []string    `yaml:"libraries"`
		Args      []yaml.Node `yaml:"args"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Artifact = raw.Artifact
	c.Libraries = raw.Libraries
	c.Args = nil
	for i := range raw.Args {
		arg, err := decodeArg(&raw.Args[i])
		if err != nil {
			return err
		}
		c.Args = append(c.Args, arg)
	}
	return nil
}

func decodeArg(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeArg(node.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeArg(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int":
			var v any
			if err := node.Decode(&v); err != nil {
				return nil, err
			}
			if _, ok := v.(float64); !ok {
				return v, nil
			}
			n, ok := new(big.Int).SetString(node.Value, 0)
			if !ok {
				return nil, fmt.Errorf("line %d: invalid integer %s", node.Line, strconv.Quote(node.Value))
			}
			return n, nil
		case "!!float":
			// Whole numbers like 1e18 or 123456789012345678901234567
			if r, ok := new(big.Rat).SetString(strings.ReplaceAll(node.Value, "_", "")); ok && r.IsInt() {
				return new(big.Int).Set(r.Num()), nil
			}
		}
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ArtifactName returns the artifact to deploy, defaulting to the contract name
func (c ContractSpec) ArtifactName() string {
	if c.Artifact != "" {
		return c.Artifact
	}
	return c.Name
}

// References returns the contract names referenced by constructor arguments
func (c ContractSpec) References() []string {
	var refs []string
	for _, arg := range c.Args {
		refs = append(refs, collectReferences(arg)...)
	}
	return refs
}

func collectReferences(arg any) []string {
	switch v := arg.(type) {
	case string:
		if name, ok := ParseReference(v); ok {
			return []string{name}
		}
	case []any:
		var refs []string
		for _, item := range v {
			refs = append(refs, collectReferences(item)...)
		}
		return refs
	}
	return nil
}

// ParseReference returns the contract name for "@Name" style arguments
func ParseReference(value string) (string, bool) {
	if !strings.HasPrefix(value, ReferencePrefix) {
		return "", false
	}
	name := strings.TrimPrefix(value, ReferencePrefix)
	// Allow the truffle-ish "@Name.address" spelling
	name = strings.TrimSuffix(name, ".address")
	if name == "" {
		return "", false
	}
	return name, true
}

// DisplayName returns "2_deploy_contracts" style identifiers
func (m *Migration) DisplayName() string {
	return fmt.Sprintf("%d_%s", m.Number, m.Name)
}

// MigrationNumber returns the number of a "2_deploy_contracts" style name
func MigrationNumber(displayName string) (int, bool) {
	prefix, _, found := strings.Cut(displayName, "_")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Contract returns the declared contract with the given name
func (m *Migration) Contract(name string) (ContractSpec, bool) {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return ContractSpec{}, false
}

// RunStatus is the status of a migration run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCompleted RunStatus = "completed"
)

// MigrationState tracks migration progress for a namespace on a chain
type MigrationState struct {
	Namespace     string         `json:"namespace"`
	ChainID       uint64         `json:"chainId"`
	LastCompleted int            `json:"lastCompleted"`
	Current       *MigrationRun  `json:"current,omitempty"`
	History       []MigrationRun `json:"history,omitempty"`
}

// MigrationRun records one attempt at a migration
type MigrationRun struct {
	Number     int               `json:"number"`
	Name       string            `json:"name"`
	Status     RunStatus         `json:"status"`
	StartedAt  time.Time         `json:"startedAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Deployed   map[string]string `json:"deployed,omitempty"` // contract name -> deployment id
	FailedStep string            `json:"failedStep,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// StateKey returns the storage key for a namespace and chain
func StateKey(namespace string, chainID uint64) string {
	return fmt.Sprintf("%s/%d", namespace, chainID)
}
