package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/sym"
)

// pluginInfo is what `plugctl info` prints
type pluginInfo struct {
	ID           string                       `json:"id" yaml:"id" toml:"id"`
	Name         string                       `json:"name" yaml:"name" toml:"name"`
	Description  string                       `json:"description" yaml:"description" toml:"description"`
	Version      string                       `json:"version" yaml:"version" toml:"version"`
	Enabled      bool                         `json:"enabled" yaml:"enabled" toml:"enabled"`
	Path         string                       `json:"path" yaml:"path" toml:"path"`
	Provider     string                       `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider,omitempty"`
	Namespace    string                       `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Requirements []registry.RequirementStatus `json:"requirements,omitempty" yaml:"requirements,omitempty" toml:"requirements,omitempty"`
	Warnings     []string                     `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

func newInfoCmd(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <id>",
		Short: sym.Short("info"),
		Long: sym.Info + ` info - Show plugin details

The identifier is matched case-insensitively against plugin ids. Plugins
whose manifest has no id can be named by their directory.

Examples:
  plugctl info blog
  plugctl info blog --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), app, args[0], format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml, toml")
	return cmd
}

func runInfo(w io.Writer, app *App, identifier, format string) error {
	entry, err := app.Registry.Resolve(identifier)
	if err != nil {
		return withResolveHint(err)
	}

	m := entry.Manifest
	info := pluginInfo{
		ID:           m.ID,
		Name:         m.DisplayName(),
		Description:  m.Description,
		Version:      m.Version,
		Enabled:      m.Enabled,
		Path:         entry.Path,
		Provider:     m.Provider,
		Namespace:    m.Namespace,
		Requirements: registry.CheckRequirements(m, app.Config.AvailablePackages()),
		Warnings:     entry.Warnings,
	}

	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal plugin info to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(info)
		if err != nil {
			return errors.Wrap(err, "failed to marshal plugin info to YAML")
		}
		fmt.Fprint(w, string(data))

	case "toml":
		data, err := toml.Marshal(info)
		if err != nil {
			return errors.Wrap(err, "failed to marshal plugin info to TOML")
		}
		fmt.Fprint(w, string(data))

	case "table":
		return renderInfoTable(w, info)

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: table, json, yaml, toml)", format)
	}
	return nil
}

func renderInfoTable(w io.Writer, info pluginInfo) error {
	fmt.Fprint(w, pterm.Info.Sprintfln("Plugin: %s", info.Name))
	fmt.Fprintln(w, strings.Repeat("-", 50))

	enabled := "No"
	if info.Enabled {
		enabled = "Yes"
	}
	description := info.Description
	if description == "" {
		description = "No description"
	}

	rows := [][]string{
		{"Property", "Value"},
		{"ID", info.ID},
		{"Name", info.Name},
		{"Description", description},
		{"Version", info.Version},
		{"Enabled", enabled},
		{"Path", info.Path},
		{"Provider", orNA(info.Provider)},
		{"Namespace", orNA(info.Namespace)},
	}
	if err := renderTable(w, rows); err != nil {
		return err
	}

	if len(info.Requirements) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Requirements:")
		rows := [][]string{{"Package", "Version", "Installed", "Status"}}
		for _, req := range info.Requirements {
			installed := req.Installed
			if !req.Known {
				installed = "-"
			}
			rows = append(rows, []string{req.Name, req.Constraint, installed, requirementStatus(req)})
		}
		if err := renderTable(w, rows); err != nil {
			return err
		}
	}

	for _, warning := range info.Warnings {
		fmt.Fprintf(w, "%s %s\n", sym.Warn, warning)
	}
	return nil
}

func requirementStatus(req registry.RequirementStatus) string {
	switch {
	case !req.Known:
		return pterm.Yellow("unknown")
	case req.Error != "":
		return pterm.Yellow(sym.Warn + " " + req.Error)
	case req.Satisfied:
		return pterm.Green(sym.OK)
	default:
		return pterm.Red(sym.Fail)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// withResolveHint attaches what to do next to a resolver failure
func withResolveHint(err error) error {
	var notFound *registry.NotFoundError
	if errors.As(err, &notFound) && len(notFound.Suggestions) == 0 {
		return errors.WithHint(err, "Use `plugctl list` to see available plugins")
	}
	var invalid *registry.InvalidPluginError
	if errors.As(err, &invalid) {
		return errors.WithHintf(err, "Fix %s/plugin.json or run `plugctl list --debug` for details", invalid.Path)
	}
	return err
}
