package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored documents",
	Long: `Embeds the query and returns the most similar documents, best first.
Ties are broken in favour of newer documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results, err := svc.Search.Search(cmd.Context(), query, domain.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		if results == nil {
			results = []domain.Document{}
		}
		return printJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.Document) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		var similarity float64
		if results[i].Similarity != nil {
			similarity = *results[i].Similarity
		}
		cmd.Printf("[%d] %s (%.2f)\n", i+1, results[i].Filename, similarity)
		cmd.Printf("    ID: %s\n", results[i].ID)
		if len(results[i].Tags) > 0 {
			cmd.Printf("    Tags: %s\n", strings.Join(results[i].Tags, ", "))
		}
		if summary := results[i].Summary(); summary != "" {
			cmd.Printf("    %s\n", summary)
		}
		cmd.Println()
	}
	return nil
}
