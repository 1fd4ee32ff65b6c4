package forge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// runFunc runs a command in dir and returns its combined output
type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Builder compiles the project with the toolchain it was set up for
type Builder struct {
	projectRoot string
	log         *slog.Logger
	run         runFunc
}

// NewBuilder creates a new project builder
func NewBuilder(cfg *config.RuntimeConfig, log *slog.Logger) *Builder {
	return &Builder{
		projectRoot: cfg.ProjectRoot,
		log:         log.With("component", "Builder"),
		run:         runCommand,
	}
}

// Command returns the compile command for the project
func (b *Builder) Command() (string, []string) {
	if _, err := os.Stat(filepath.Join(b.projectRoot, "foundry.toml")); err == nil {
		return "forge", []string{"build"}
	}
	return "npx", []string{"truffle", "compile"}
}

// Build runs the compiler and returns its output on failure
func (b *Builder) Build(ctx context.Context) error {
	name, args := b.Command()
	start := time.Now()
	b.log.Debug("running build", "cmd", name, "args", args, "dir", b.projectRoot)

	output, err := b.run(ctx, b.projectRoot, name, args...)
	duration := time.Since(start)

	if err != nil {
		b.log.Error("build failed", "error", err, "duration", duration)
		return fmt.Errorf("%s %s failed: %w\nOutput: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	b.log.Debug("build completed", "duration", duration)
	return nil
}

// Ensure Builder implements ProjectBuilder
var _ usecase.ProjectBuilder = (*Builder)(nil)
