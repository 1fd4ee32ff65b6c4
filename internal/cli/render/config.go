package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{out: out}
}

// RenderConfig shows the stored values next to the ones in effect
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"Key", "Saved", "In Effect"})
	t.AppendRows([]table.Row{
		{config.ConfigKeyNamespace, savedCell(result.Exists, result.Config.Namespace), effectiveCell(result.Config.Namespace, result.Namespace)},
		{config.ConfigKeyNetwork, savedCell(result.Exists, result.Config.Network), effectiveCell(result.Config.Network, result.Network)},
	})
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	if !result.Exists {
		fmt.Fprintf(r.out, "No %s yet, run `treb-migrate config set <key> <value>` to create it\n", getRelativePath(result.ConfigPath))
		return nil
	}
	fmt.Fprintf(r.out, "Config file: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

func savedCell(exists bool, value string) string {
	if !exists || value == "" {
		return color.New(color.Faint).Sprint("-")
	}
	return value
}

// effectiveCell flags values overridden by a flag or environment variable
func effectiveCell(saved, effective string) string {
	if saved != "" && saved != effective {
		return effective + color.New(color.FgYellow).Sprint(" (override)")
	}
	return effective
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.ConfigChangeResult) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Set %s to %s", result.Key, result.Value)))
	fmt.Fprintf(r.out, "Config file: %s\n", getRelativePath(result.ConfigPath))
	return nil
}

// RenderRemove renders the result of removing a configuration value
func (r *ConfigRenderer) RenderRemove(result *usecase.ConfigChangeResult) error {
	switch result.Key {
	case config.ConfigKeyNamespace:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Reset namespace to %s", result.UpdatedConfig.Namespace)))
	case config.ConfigKeyNetwork:
		fmt.Fprintln(r.out, FormatSuccess("Removed network, commands fall back to local"))
	}
	fmt.Fprintf(r.out, "Config file: %s\n", getRelativePath(result.ConfigPath))
	return nil
}
