package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calderalabs/ragline/internal/core/domain"
)

var extractCmd = &cobra.Command{
	Use:   "extract [source]",
	Short: "Extract documents from configured sources",
	Long: `Pulls records from a configured source and writes normalised
documents to the data directory. Without an argument, every configured
source is extracted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.extraction()

	var reports []domain.ExtractionReport
	if len(args) > 0 {
		report, err := svc.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		reports = append(reports, report)
	} else {
		reports, err = svc.RunAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
	}

	for _, report := range reports {
		cmd.Printf("%s: %d documents", report.Source, report.Documents)
		if report.Partial() {
			cmd.Printf(" (%d partitions skipped)", len(report.Skipped))
		}
		cmd.Println()
		for _, failure := range report.Skipped {
			cmd.Printf("  skipped %s: %s\n", failure.Partition, failure.Reason)
		}
	}
	return nil
}
