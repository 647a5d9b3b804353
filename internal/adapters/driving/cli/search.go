package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	searchLimit    int
	searchMinScore float64
	searchDocs     []string
	searchKeyword  bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed chunks",
	Long: `Ranks indexed chunks by cosine similarity to the query embedding.
Falls back to keyword matching when the query cannot be embedded.
Use --keyword to skip embeddings and match text directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum similarity score")
	searchCmd.Flags().StringSliceVar(&searchDocs, "doc", nil, "restrict the search to these document IDs")
	searchCmd.Flags().BoolVarP(&searchKeyword, "keyword", "k", false, "keyword search only")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		Limit:       searchLimit,
		MinScore:    searchMinScore,
		DocumentIDs: searchDocs,
	}

	var (
		results []domain.RetrievedChunk
		err     error
	)
	if searchKeyword {
		results, err = indexerService.KeywordSearch(ctx, query, opts)
	} else {
		results, err = indexerService.SemanticSearch(ctx, query, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(heading("Results:"))
	cmd.Println()
	for i := range results {
		c := results[i].Chunk
		cmd.Printf("  [%d] %s chunk %d (%s)\n", i+1, c.DocumentID, c.ChunkIndex, scoreText(results[i].Score))
		cmd.Printf("      %s\n", snippet(c.Content, 160))
		cmd.Println()
	}

	return nil
}
