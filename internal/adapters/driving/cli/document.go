package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `List stored documents, show a document, or print its chunks.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print the chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var removeCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Rebuild the chunks of a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runReindex,
}

var (
	documentOwner   string
	reindexSkipEmb  bool
	reindexSize     int
	reindexOverlap  int
	documentContent bool
)

func init() {
	documentListCmd.Flags().StringVar(&documentOwner, "owner", "", "only list documents of this owner")
	documentGetCmd.Flags().BoolVar(&documentContent, "content", false, "print the full content")

	reindexCmd.Flags().BoolVar(&reindexSkipEmb, "skip-embeddings", false, "store chunks without embeddings")
	reindexCmd.Flags().IntVar(&reindexSize, "chunk-size", 0, "characters per chunk (0 = configured)")
	reindexCmd.Flags().IntVar(&reindexOverlap, "chunk-overlap", 0, "characters shared by adjacent chunks (0 = configured)")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentChunksCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(reindexCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background(), documentOwner)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Println(heading("Documents:"))
	cmd.Println()
	for i := range docs {
		state := warning("not indexed")
		if docs[i].Indexed {
			state = success(fmt.Sprintf("%d chunks", docs[i].ChunkCount))
		}
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s (%s)\n", docs[i].Title, state)
		if docs[i].Filename != "" {
			cmd.Printf("    File:  %s\n", docs[i].Filename)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("%s %s\n\n", heading("Document:"), doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	if doc.Filename != "" {
		cmd.Printf("  File:     %s\n", doc.Filename)
	}
	if doc.OwnerID != "" {
		cmd.Printf("  Owner:    %s\n", doc.OwnerID)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("  Tags:     %v\n", doc.Tags)
	}
	cmd.Printf("  Indexed:  %t (%d chunks)\n", doc.Indexed, doc.ChunkCount)
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if documentContent {
		cmd.Println()
		cmd.Println(doc.Content)
	}
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	chunks, err := indexerService.GetDocumentChunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks found.")
		return nil
	}

	for i := range chunks {
		cmd.Printf("%s %s\n", heading(fmt.Sprintf("[%d]", chunks[i].ChunkIndex)),
			faint(fmt.Sprintf("chars %d-%d, ~%d tokens", chunks[i].CharStart, chunks[i].CharEnd, chunks[i].TokenCount)))
		cmd.Println(chunks[i].Content)
		cmd.Println()
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Remove(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	result, err := indexerService.ReindexDocument(context.Background(), args[0], domain.IndexOptions{
		ChunkSize:      reindexSize,
		ChunkOverlap:   reindexOverlap,
		SkipEmbeddings: reindexSkipEmb,
	})
	if err != nil {
		return fmt.Errorf("failed to reindex document: %w", err)
	}

	printIndexResult(cmd, args[0], result)
	return nil
}

func printIndexResult(cmd *cobra.Command, label string, result *domain.IndexResult) {
	cmd.Printf("%s %s: %d chunks, ~%d tokens\n", success("Indexed"), label, result.ChunkCount, result.TotalTokens)
	if result.FailedEmbeddings > 0 {
		cmd.Printf("  %s %d chunks have no embedding and are only found by keyword search\n",
			warning("warning:"), result.FailedEmbeddings)
	}
}
