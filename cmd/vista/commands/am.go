package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/vista/am"
	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/sym"
	"gopkg.in/yaml.v3"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.AM + " Manage vista configuration",
	Long: sym.AM + ` am - Manage vista configuration ("I am")

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/vista/am.toml)
3. User config (~/.vista/am.toml)
4. UI edits (~/.vista/am_from_ui.toml)
5. Project config (./am.toml, searched upward)
6. Environment variables (VISTA_* prefix)

Examples:
  vista am show                    # Show current configuration
  vista am show --format yaml      # Show configuration as YAML
  vista am get view.mode           # Get a specific value
  vista am validate                # Validate current configuration
  vista am where                   # Show which file set each value
  vista am presets                 # List physics presets`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., view.mode, physics.repulsion)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var amPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List physics presets available to set_params",
	RunE:  runAmPresets,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amPresetsCmd)
}

func loadRawConfig() (*am.Config, error) {
	if ConfigFile != "" {
		return am.LoadFromFile(ConfigFile)
	}
	return am.Load()
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadRawConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
}

// writeConfig renders cfg in one of the am show formats
func writeConfig(w io.Writer, cfg *am.Config, format string) error {
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
		fmt.Fprintf(w, "# vista configuration\n%s", data)
	case "toml":
		data, err := am.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "# vista configuration\n%s", data)
	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := loadRawConfig(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	intro := am.GetConfigIntrospection()

	if intro.ProjectConfig != "" {
		pterm.Info.Printfln("Project config: %s", intro.ProjectConfig)
	} else {
		pterm.Info.Println("No project am.toml found")
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithWriter(cmd.OutOrStdout()).
		WithData(whereTable(intro.Settings)).
		Render()
}

// whereTable lists settings grouped by source, lowest precedence first
func whereTable(settings []am.SettingInfo) pterm.TableData {
	rank := map[am.ConfigSource]int{
		am.SourceDefault:     0,
		am.SourceSystem:      1,
		am.SourceUser:        2,
		am.SourceUserUI:      3,
		am.SourceProject:     4,
		am.SourceEnvironment: 5,
	}

	sorted := append([]am.SettingInfo(nil), settings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if rank[sorted[i].Source] != rank[sorted[j].Source] {
			return rank[sorted[i].Source] < rank[sorted[j].Source]
		}
		return sorted[i].Key < sorted[j].Key
	})

	data := pterm.TableData{{"Source", "Key", "Value", "From"}}
	for _, setting := range sorted {
		value := fmt.Sprintf("%v", setting.Value)
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		data = append(data, []string{string(setting.Source), setting.Key, value, setting.SourcePath})
	}
	return data
}

func runAmPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadRawConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	path := cfg.Dataset.Presets
	if path == "" {
		path = am.FindPresets()
	}
	if path == "" {
		pterm.Info.Println("No am.presets.toml found")
		return nil
	}

	presets, err := am.LoadPresets(path)
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Presets from %s", path)
	data := pterm.TableData{{"Name", "Changes"}}
	for _, name := range presets.Names() {
		update, _ := presets.Get(name)
		changes, err := json.Marshal(update)
		if err != nil {
			return err
		}
		data = append(data, []string{name, string(changes)})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}
