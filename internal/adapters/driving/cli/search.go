package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagSearchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the ingested chunks",
	Long: `Embeds the query with the configured model and returns the
most similar chunks. Falls back to text matching when embeddings are
disabled or the vector search fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&flagSearchLimit, "limit", "k", 10, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	query := strings.Join(args, " ")
	hits, err := a.search().Search(cmd.Context(), query, flagSearchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		cmd.Println("No results.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("%d. %s (score %.4f)\n", i+1, hit.ID, hit.Score)
		if len(hit.Metadata) > 0 {
			cmd.Printf("   tags: %s\n", strings.Join(hit.Metadata, ", "))
		}
		cmd.Printf("   %s\n", snippet(hit.Text, 200))
	}
	return nil
}

// snippet truncates text for terminal display.
func snippet(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
