package models

import (
	"fmt"
	"time"
)

// DeploymentType represents the type of deployment
type DeploymentType string

const (
	SingletonDeployment DeploymentType = "SINGLETON"
	LibraryDeployment   DeploymentType = "LIBRARY"
)

// DeploymentStatus tracks a record from transaction submission to confirmation
type DeploymentStatus string

const (
	DeploymentStatusPending  DeploymentStatus = "PENDING"
	DeploymentStatusDeployed DeploymentStatus = "DEPLOYED"
	DeploymentStatusFailed   DeploymentStatus = "FAILED"
)

// Deployment represents a contract deployment record
type Deployment struct {
	// Core identification
	ID           string         `json:"id"`        // e.g., "default/31337/IdentityRegistry"
	Namespace    string         `json:"namespace"` // e.g., "default", "staging"
	ChainID      uint64         `json:"chainId"`
	Migration    string         `json:"migration"`    // e.g., "2_deploy_contracts"
	ContractName string         `json:"contractName"` // deployment identifier from the migration
	Artifact     string         `json:"artifact"`     // artifact that was deployed
	Type         DeploymentType `json:"type"`

	// On-chain data, populated as the record progresses
	Status      DeploymentStatus `json:"status"`
	Address     string           `json:"address,omitempty"`
	TxHash      string           `json:"txHash,omitempty"`
	BlockNumber uint64           `json:"blockNumber,omitempty"`
	Deployer    string           `json:"deployer,omitempty"`

	// Inputs
	Libraries       map[string]string `json:"libraries,omitempty"`       // library name -> linked address
	ConstructorArgs string            `json:"constructorArgs,omitempty"` // hex encoded
	Error           string            `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDeploymentID builds the registry id for a contract in a namespace on a chain
func NewDeploymentID(namespace string, chainID uint64, contractName string) string {
	return fmt.Sprintf("%s/%d/%s", namespace, chainID, contractName)
}

// IsDeployed reports whether the record holds a confirmed address
func (d *Deployment) IsDeployed() bool {
	return d.Status == DeploymentStatusDeployed && d.Address != ""
}

// GetDisplayName returns a human-friendly name for the deployment
func (d *Deployment) GetDisplayName() string {
	if d.Artifact != "" && d.Artifact != d.ContractName {
		return fmt.Sprintf("%s (%s)", d.ContractName, d.Artifact)
	}
	return d.ContractName
}
