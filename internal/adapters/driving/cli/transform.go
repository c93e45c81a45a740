package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calderalabs/ragline/internal/core/services"
)

var transformCmd = &cobra.Command{
	Use:   "transform [name]",
	Short: "Transform extracted documents into chunks",
	Long: `Reads extracted documents and cuts them into tagged chunks
ready for embedding. Without an argument, every configured transformer
runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc := a.transformation()

	var reports []services.TransformReport
	if len(args) > 0 {
		report, err := svc.Run(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("transformation failed: %w", err)
		}
		reports = append(reports, report)
	} else {
		reports, err = svc.RunAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("transformation failed: %w", err)
		}
	}

	for _, report := range reports {
		cmd.Printf("%s: %d chunks from %s", report.Transformer, report.Chunks, report.Source)
		if len(report.Failures) > 0 {
			cmd.Printf(" (%d records failed)", len(report.Failures))
		}
		cmd.Println()
	}
	return nil
}
