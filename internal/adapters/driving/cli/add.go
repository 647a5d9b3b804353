package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a file and index it",
	Long: `Reads a file, converts it to plain text and stores it as a document.
The document is then chunked and embedded unless --no-index is given.

Plain text, Markdown, HTML and PDF files are supported. Adding the same
path again replaces the stored document.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	addOwner   string
	addTags    []string
	addNoIndex bool
	addSkipEmb bool
	addSize    int
	addOverlap int
)

func init() {
	addCmd.Flags().StringVar(&addOwner, "owner", "", "owner of the document")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "document tags")
	addCmd.Flags().BoolVar(&addNoIndex, "no-index", false, "store the document without indexing it")
	addCmd.Flags().BoolVar(&addSkipEmb, "skip-embeddings", false, "index without embeddings (keyword search only)")
	addCmd.Flags().IntVar(&addSize, "chunk-size", 0, "characters per chunk (0 = configured)")
	addCmd.Flags().IntVar(&addOverlap, "chunk-overlap", 0, "characters shared by adjacent chunks (0 = configured)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	doc, result, err := ingestFile(cmd.Context(), args[0], ingestOptions{
		OwnerID:   addOwner,
		Tags:      addTags,
		SkipIndex: addNoIndex,
		Index: domain.IndexOptions{
			ChunkSize:      addSize,
			ChunkOverlap:   addOverlap,
			SkipEmbeddings: addSkipEmb,
		},
	})
	if err != nil {
		return err
	}

	cmd.Printf("Added %s %s\n", doc.ID, faint("("+doc.Title+")"))
	if result != nil {
		printIndexResult(cmd, doc.ID, result)
	}
	return nil
}
