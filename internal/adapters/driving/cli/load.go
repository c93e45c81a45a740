package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Embed chunks and ingest them into the search backend",
	Long: `Reads every transformed source, generates embeddings when
enabled and upserts the aligned records into the configured backend.
Re-running a load overwrites rather than duplicates.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("loading"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	outcome, err := a.loader().Run(cmd.Context(), progress)
	if err != nil {
		return fmt.Errorf("loading failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	cmd.Printf("Ingested %d/%d records\n", outcome.Succeeded, outcome.Attempted)
	for _, id := range outcome.FailedItems {
		cmd.Printf("  failed: %s\n", id)
	}
	return nil
}
