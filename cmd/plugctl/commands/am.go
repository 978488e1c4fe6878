package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/plugctl/am"
	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/sym"
)

func newAmCmd(app *App) *cobra.Command {
	amCmd := &cobra.Command{
		Use:   "am",
		Short: sym.Short("am"),
		Long: sym.AM + ` am - Manage plugctl configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/plugctl/am.toml)
3. User config (~/.plugctl/am.toml)
4. Project config (am.toml, searched upwards from the working directory)
5. Explicit config (--config)
6. Environment variables (PLUGCTL_* prefix, APP_ENV, PLUGINS_PATH)

Examples:
  plugctl am show                 # Show current configuration
  plugctl am show --format json   # Show configuration as JSON
  plugctl am get plugins.path     # Get a single value
  plugctl am where                # Show where each value came from`,
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmShow(cmd.OutOrStdout(), app.Config, format)
		},
	}
	showCmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a specific configuration value using dot notation (e.g., plugins.path, install.command)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := am.GetViper()
			if !v.IsSet(args[0]) {
				return errors.NewNotFoundError("configuration key %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Get(args[0]))
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), sym.OK+" Configuration is valid")
			return nil
		},
	}

	whereCmd := &cobra.Command{
		Use:   "where",
		Short: "Show where configuration is loaded from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmWhere(cmd.OutOrStdout())
		},
	}

	amCmd.AddCommand(showCmd, getCmd, validateCmd, whereCmd)
	return amCmd
}

func runAmShow(w io.Writer, cfg *am.Config, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# plugctl configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# plugctl configuration\n%s", string(data))

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmWhere(w io.Writer) error {
	fmt.Fprintln(w, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(w, "  1. [DEFAULT]     Built-in defaults")
	fmt.Fprintln(w, "  2. [SYSTEM]      /etc/plugctl/am.toml")
	fmt.Fprintln(w, "  3. [USER]        ~/.plugctl/am.toml")
	fmt.Fprintln(w, "  4. [PROJECT]     ./am.toml (searches up directories)")
	fmt.Fprintln(w, "  5. [EXPLICIT]    --config")
	fmt.Fprintln(w, "  6. [ENVIRONMENT] PLUGCTL_* environment variables")
	fmt.Fprintln(w)

	rows := [][]string{{"Key", "Value", "Source", "From"}}
	for _, s := range am.Introspect() {
		value := fmt.Sprintf("%v", s.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		rows = append(rows, []string{s.Key, value, string(s.Source), s.SourcePath})
	}
	return renderTable(w, rows)
}
