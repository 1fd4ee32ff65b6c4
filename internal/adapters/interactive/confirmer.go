package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// ConfirmerAdapter asks yes/no questions on the terminal
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	ask    func(label string) (string, error)
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{config: cfg, ask: promptConfirm}
}

func promptConfirm(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:     color.New(color.FgYellow, color.Bold).Sprint(label),
		IsConfirm: true,
	}
	return prompt.Run()
}

// Confirm returns true only for an explicit yes
func (c *ConfirmerAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.config.NonInteractive {
		return false, fmt.Errorf("confirmation required but running non-interactively: %s", prompt)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	answer, err := c.ask(prompt)
	if err != nil {
		// promptui reports "n" on a confirm prompt as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	switch answer {
	case "y", "Y", "yes", "Yes", "YES":
		return true, nil
	}
	return false, nil
}

// Ensure the adapter implements the interface
var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
