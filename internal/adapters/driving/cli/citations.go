package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "Show recorded citations",
}

var citationsSessionCmd = &cobra.Command{
	Use:   "session [session-id]",
	Short: "List the citations of a chat session",
	Args:  cobra.ExactArgs(1),
	RunE:  runCitationsSession,
}

var citationsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most cited documents",
	Args:  cobra.NoArgs,
	RunE:  runCitationsTop,
}

var (
	citationsOwner string
	citationsLimit int
)

func init() {
	citationsTopCmd.Flags().StringVar(&citationsOwner, "owner", "", "only count documents of this owner")
	citationsTopCmd.Flags().IntVarP(&citationsLimit, "limit", "n", 10, "number of documents")

	citationsCmd.AddCommand(citationsSessionCmd)
	citationsCmd.AddCommand(citationsTopCmd)
	rootCmd.AddCommand(citationsCmd)
}

func runCitationsSession(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	details, err := retrieverService.GetSessionCitations(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get citations: %w", err)
	}

	if len(details) == 0 {
		cmd.Printf("No citations for session %s\n", args[0])
		return nil
	}

	cmd.Printf("%s %s\n\n", heading("Citations for session"), args[0])
	for i := range details {
		d := details[i]
		title := d.DocumentTitle
		if title == "" {
			title = d.DocumentID
		}
		cmd.Printf("  %s  message %s  %s (%s)\n",
			faint(d.CreatedAt.Format("2006-01-02 15:04:05")), d.MessageID, title, scoreText(d.RelevanceScore))
	}
	return nil
}

func runCitationsTop(cmd *cobra.Command, _ []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	docs, err := retrieverService.GetTopCitedDocuments(context.Background(), citationsOwner, citationsLimit)
	if err != nil {
		return fmt.Errorf("failed to get cited documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No citations recorded.")
		return nil
	}

	cmd.Println(heading("Most cited documents:"))
	cmd.Println()
	for i, d := range docs {
		cmd.Printf("  %d. %s  %d citations, avg relevance %s\n", i+1, d.Title, d.CitationCount, scoreText(d.AvgRelevance))
	}
	return nil
}
