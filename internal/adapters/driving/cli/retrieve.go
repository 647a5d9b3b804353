package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve context sources for a question",
	Long: `Finds the chunks most relevant to a question and prints them as
numbered sources with their document titles.

With --multi (or --owner / --source) the conversation, screenshot, audio and
external database pools are searched as well and merged by weighted score.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

var promptCmd = &cobra.Command{
	Use:   "prompt [query]",
	Short: "Build an LLM prompt enriched with retrieved context",
	Long: `Retrieves context for the question and prints the base prompt with as
many numbered sources as fit the token budget, followed by the question.

With --session and --message the sources used are recorded as citations.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

// retrievalFlags are shared by retrieve and prompt.
type retrievalFlags struct {
	maxChunks int
	minScore  float64
	docs      []string
	multi     bool
	owner     string
	sources   []string
}

var (
	retrieveFlags retrievalFlags
	retrieveJSON  bool

	promptFlags   retrievalFlags
	promptBase    string
	promptSession string
	promptMessage string
)

func (f *retrievalFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.maxChunks, "max-chunks", "n", 0, "maximum number of chunks (0 = configured)")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "minimum similarity score (0 = configured, -1 = no threshold)")
	cmd.Flags().StringSliceVar(&f.docs, "doc", nil, "restrict document retrieval to these IDs")
	cmd.Flags().BoolVarP(&f.multi, "multi", "m", false, "search content pools as well as documents")
	cmd.Flags().StringVar(&f.owner, "owner", "", "owner of the content pools")
	cmd.Flags().StringSliceVar(&f.sources, "source", nil, "source types to search (document, conversation, screenshot, audio, external)")
}

func (f *retrievalFlags) isMulti() bool {
	return f.multi || f.owner != "" || len(f.sources) > 0
}

func (f *retrievalFlags) retrieve(ctx context.Context, query string) (*domain.ContextData, error) {
	if !f.isMulti() {
		return retrieverService.RetrieveContext(ctx, query, domain.RetrieveOptions{
			MaxChunks:   f.maxChunks,
			DocumentIDs: f.docs,
			MinScore:    f.minScore,
		})
	}

	sources := make([]domain.SourceType, 0, len(f.sources))
	for _, name := range f.sources {
		st, ok := domain.ParseSourceType(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source type %q", domain.ErrInvalidInput, name)
		}
		sources = append(sources, st)
	}
	return retrieverService.RetrieveContextMultiSource(ctx, query, f.owner, domain.MultiSourceOptions{
		Sources:   sources,
		MaxChunks: f.maxChunks,
		MinScore:  f.minScore,
	})
}

func init() {
	retrieveFlags.register(retrieveCmd)
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output sources as JSON")

	promptFlags.register(promptCmd)
	promptCmd.Flags().StringVarP(&promptBase, "base", "b", "You are a helpful assistant.", "base system prompt")
	promptCmd.Flags().StringVar(&promptSession, "session", "", "session ID for citation tracking")
	promptCmd.Flags().StringVar(&promptMessage, "message", "", "message ID for citation tracking")

	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(promptCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	data, err := retrieveFlags.retrieve(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		return printJSON(cmd, data.Sources)
	}

	if !data.HasContext {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Println(heading("Sources:"))
	cmd.Println()
	for i, src := range data.Sources {
		label := src.Title
		if retrieveFlags.isMulti() {
			label = src.SourceType.Label() + ": " + label
		}
		cmd.Printf("  [%d] %s (%s)\n", i+1, label, scoreText(src.Score))
		cmd.Printf("      %s\n", snippet(src.Content, 160))
		cmd.Println()
	}
	cmd.Printf("Total: %d sources, ~%d tokens\n", len(data.Sources), data.TotalTokens)
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}
	if (promptSession == "") != (promptMessage == "") {
		return errors.New("--session and --message must be given together")
	}

	ctx := context.Background()
	query := args[0]

	data, err := promptFlags.retrieve(ctx, query)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	var enriched *domain.EnrichedPrompt
	if promptFlags.isMulti() {
		enriched = retrieverService.BuildEnrichedPromptMultiSource(ctx, query, promptBase, promptFlags.owner, data)
	} else {
		enriched = retrieverService.BuildEnrichedPrompt(ctx, query, promptBase, data)
	}

	cmd.Println(strings.TrimRight(enriched.Prompt, "\n"))

	if promptSession != "" && enriched.HasContext {
		citations, err := retrieverService.TrackCitations(ctx, promptSession, promptMessage, enriched.Sources)
		if err != nil {
			return fmt.Errorf("failed to track citations: %w", err)
		}
		cmd.PrintErrf("%s %d citations for session %s\n", success("Recorded"), len(citations), promptSession)
	}
	return nil
}
