package domain

import (
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// DeploymentFilter defines filtering options for deployments
type DeploymentFilter struct {
	Namespace    string
	ChainID      uint64
	Migration    string
	ContractName string
	Type         models.DeploymentType
	Status       models.DeploymentStatus
}

// Matches reports whether a deployment satisfies every set field of the filter
func (f DeploymentFilter) Matches(d *models.Deployment) bool {
	if f.Namespace != "" && d.Namespace != f.Namespace {
		return false
	}
	if f.ChainID != 0 && d.ChainID != f.ChainID {
		return false
	}
	if f.Migration != "" && d.Migration != f.Migration {
		return false
	}
	if f.ContractName != "" && d.ContractName != f.ContractName {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	return true
}
