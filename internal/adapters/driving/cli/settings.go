package cli

import (
	"github.com/spf13/cobra"

	"github.com/calderalabs/ragline/internal/config"
)

var (
	flagSettingsPipeline string
	flagSettingsDataDir  string
	flagSettingsVerbose  bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update application settings",
	Long: `Prints the stored application settings, or updates them when
flags are given. Settings live at ~/.ragline/config.toml and supply
defaults for the pipeline file and the data directory.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&flagSettingsPipeline, "pipeline", "", "default pipeline configuration file")
	settingsCmd.Flags().StringVar(&flagSettingsDataDir, "data-dir", "", "override for the pipeline data directory")
	settingsCmd.Flags().BoolVar(&flagSettingsVerbose, "verbose-logging", false, "enable debug logging by default")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultSettingsPath()
	if err != nil {
		return err
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return err
	}

	if applySettingsFlags(cmd, settings) {
		if err := config.SaveSettings(path, settings); err != nil {
			return err
		}
		cmd.Printf("Settings saved to %s\n", path)
	}

	printSettings(cmd, settings)
	return nil
}

// applySettingsFlags copies changed flags onto the settings and
// reports whether anything changed.
func applySettingsFlags(cmd *cobra.Command, settings *config.Settings) bool {
	changed := false
	if cmd.Flags().Changed("pipeline") {
		settings.PipelinePath = flagSettingsPipeline
		changed = true
	}
	if cmd.Flags().Changed("data-dir") {
		settings.DataDir = flagSettingsDataDir
		changed = true
	}
	if cmd.Flags().Changed("verbose-logging") {
		settings.Verbose = flagSettingsVerbose
		changed = true
	}
	return changed
}

func printSettings(cmd *cobra.Command, settings *config.Settings) {
	pipeline := settings.PipelinePath
	if pipeline == "" {
		pipeline = "pipeline.yml"
	}
	dataDir := settings.DataDir
	if dataDir == "" {
		dataDir = "(from pipeline)"
	}
	cmd.Printf("pipeline: %s\n", pipeline)
	cmd.Printf("data_dir: %s\n", dataDir)
	cmd.Printf("verbose:  %v\n", settings.Verbose)
}
