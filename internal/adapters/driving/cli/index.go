package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index files and directories",
	Long: `Adds and indexes every supported file under the given paths.

With --watch, recall keeps running and reindexes files as they change.
Deleted files are removed from the index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

var (
	indexWatch   bool
	indexOwner   string
	indexSkipEmb bool
)

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep watching and reindex changed files")
	indexCmd.Flags().StringVar(&indexOwner, "owner", "", "owner of the documents")
	indexCmd.Flags().BoolVar(&indexSkipEmb, "skip-embeddings", false, "index without embeddings (keyword search only)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if normaliser == nil {
		return errors.New("normaliser not configured")
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts := indexOptionsFromFlags()

	failed := 0
	for _, path := range files {
		doc, result, err := ingestFile(ctx, path, opts)
		if err != nil {
			failed++
			cmd.PrintErrf("%s %v\n", warning("skipped:"), err)
			continue
		}
		printIndexResult(cmd, doc.Filename, result)
	}
	cmd.Printf("Indexed %d of %d files\n", len(files)-failed, len(files))

	if !indexWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchPaths(ctx, cmd, args, opts)
}

func indexOptionsFromFlags() ingestOptions {
	return ingestOptions{
		OwnerID: indexOwner,
		Index:   domain.IndexOptions{SkipEmbeddings: indexSkipEmb},
	}
}

// watchPaths reindexes files under paths until ctx is cancelled.
func watchPaths(ctx context.Context, cmd *cobra.Command, paths []string, opts ingestOptions) error {
	w, err := watch.New(fileChangeHandler(cmd, opts))
	if err != nil {
		return err
	}
	defer w.Close()

	w.SetFilter(supportedFile)
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return err
		}
	}

	cmd.Println(faint("Watching for changes, press Ctrl+C to stop"))
	return w.Run(ctx)
}

// fileChangeHandler ingests created and updated files and removes the
// documents of deleted ones.
func fileChangeHandler(cmd *cobra.Command, opts ingestOptions) watch.Handler {
	return func(ctx context.Context, change watch.Change) error {
		switch change.Type {
		case domain.ChangeDeleted:
			id, err := documentIDForPath(change.Path)
			if err != nil {
				return err
			}
			err = documentService.Remove(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("remove %s: %w", change.Path, err)
			}
			cmd.Printf("Removed %s\n", change.Path)
			return nil

		default:
			doc, result, err := ingestFile(ctx, change.Path, opts)
			if err != nil {
				return err
			}
			logger.Debug("Reindexed %s after %s", change.Path, change.Type)
			printIndexResult(cmd, doc.Filename, result)
			return nil
		}
	}
}
