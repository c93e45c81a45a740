package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract, transform, load",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cmd.Println("Extracting...")
	reports, err := a.extraction().RunAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	docs := 0
	skipped := 0
	for _, report := range reports {
		docs += report.Documents
		skipped += len(report.Skipped)
	}
	cmd.Printf("Extracted %d documents", docs)
	if skipped > 0 {
		cmd.Printf(" (%d partitions skipped)", skipped)
	}
	cmd.Println()

	cmd.Println("Transforming...")
	transformed, err := a.transformation().RunAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("transformation failed: %w", err)
	}
	chunks := 0
	for _, report := range transformed {
		chunks += report.Chunks
	}
	cmd.Printf("Produced %d chunks\n", chunks)

	cmd.Println("Loading...")
	outcome, err := a.loader().Run(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("loading failed: %w", err)
	}
	cmd.Printf("Ingested %d/%d records\n", outcome.Succeeded, outcome.Attempted)
	return nil
}
