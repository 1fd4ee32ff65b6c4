package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidMigration is returned when a migration file fails validation
	ErrInvalidMigration = errors.New("invalid migration")

	// ErrArtifactNotFound is returned when no artifact matches a contract name
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrUnlinkedBytecode is returned when bytecode still holds library placeholders
	ErrUnlinkedBytecode = errors.New("bytecode has unlinked libraries")

	// ErrNoCodeAfterDeploy is returned when a confirmed deployment left no code behind
	ErrNoCodeAfterDeploy = errors.New("no contract code after deployment")

	// ErrChainIDMismatch is returned when the RPC reports an unexpected chain
	ErrChainIDMismatch = errors.New("chain ID mismatch")

	// ErrAborted is returned when the user declines to broadcast
	ErrAborted = errors.New("aborted by user")
)

// ArtifactNotFoundErr carries close matches for an unknown artifact name
type ArtifactNotFoundErr struct {
	Name        string
	Suggestions []string
}

func (e ArtifactNotFoundErr) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("artifact %q not found", e.Name)
	}
	return fmt.Sprintf("artifact %q not found, did you mean: %s?", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e ArtifactNotFoundErr) Unwrap() error {
	return ErrArtifactNotFound
}

// UnresolvedReferenceErr is returned when a contract refers to an unknown deployment
type UnresolvedReferenceErr struct {
	Contract  string
	Reference string
}

func (e UnresolvedReferenceErr) Error() string {
	return fmt.Sprintf("contract '%s' references '%s' which is neither declared in the migration nor deployed", e.Contract, e.Reference)
}

func (e UnresolvedReferenceErr) Unwrap() error {
	return ErrInvalidMigration
}

// CircularDependencyErr lists the contracts that form a dependency cycle
type CircularDependencyErr struct {
	Contracts []string
}

func (e CircularDependencyErr) Error() string {
	return fmt.Sprintf("circular dependency detected involving contracts: %v", e.Contracts)
}

func (e CircularDependencyErr) Unwrap() error {
	return ErrInvalidMigration
}

// StepFailedErr wraps the failure of a single deployment step
type StepFailedErr struct {
	Migration string
	Contract  string
	Err       error
}

func (e StepFailedErr) Error() string {
	return fmt.Sprintf("migration %s: deploying %s: %v", e.Migration, e.Contract, e.Err)
}

func (e StepFailedErr) Unwrap() error {
	return e.Err
}
