package app

import (
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	BuildProject    *usecase.BuildProject
	PlanMigration   *usecase.PlanMigration
	RunMigration    *usecase.RunMigration
	MigrationStatus *usecase.MigrationStatus
	ListDeployments *usecase.ListDeployments
	ShowDeployment  *usecase.ShowDeployment
	ListNetworks    *usecase.ListNetworks
	ShowConfig      *usecase.ShowConfig
	SetConfig       *usecase.SetConfig
	RemoveConfig    *usecase.RemoveConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	buildProject *usecase.BuildProject,
	planMigration *usecase.PlanMigration,
	runMigration *usecase.RunMigration,
	migrationStatus *usecase.MigrationStatus,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	listNetworks *usecase.ListNetworks,
	showConfig *usecase.ShowConfig,
	setConfig *usecase.SetConfig,
	removeConfig *usecase.RemoveConfig,
) (*App, error) {
	return &App{
		Config:          cfg,
		BuildProject:    buildProject,
		PlanMigration:   planMigration,
		RunMigration:    runMigration,
		MigrationStatus: migrationStatus,
		ListDeployments: listDeployments,
		ShowDeployment:  showDeployment,
		ListNetworks:    listNetworks,
		ShowConfig:      showConfig,
		SetConfig:       setConfig,
		RemoveConfig:    removeConfig,
	}, nil
}
