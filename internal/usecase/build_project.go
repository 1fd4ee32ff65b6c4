package usecase

import (
	"context"
	"fmt"
)

// BuildProject compiles contracts before a migration reads their artifacts
type BuildProject struct {
	builder  ProjectBuilder
	progress ProgressSink
}

// NewBuildProject creates a new BuildProject use case
func NewBuildProject(builder ProjectBuilder, progress ProgressSink) *BuildProject {
	return &BuildProject{
		builder:  builder,
		progress: progress,
	}
}

// Run executes the build
func (uc *BuildProject) Run(ctx context.Context) error {
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "compiling",
		Message: "Compiling contracts",
		Spinner: true,
	})

	err := uc.builder.Build(ctx)

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "compiled",
		Message: "Contracts compiled",
	})

	if err != nil {
		return fmt.Errorf("failed to compile contracts: %w", err)
	}
	return nil
}
