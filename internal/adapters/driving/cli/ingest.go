package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
)

// ingestOptions controls how a file becomes an indexed document.
type ingestOptions struct {
	OwnerID   string
	Tags      []string
	SkipIndex bool
	Index     domain.IndexOptions
}

// documentIDForPath derives a stable ID from the absolute path, so adding a
// file twice updates the same document.
func documentIDForPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String(), nil
}

// supportedFile reports whether a file has a normaliser.
func supportedFile(path string) bool {
	return normaliser != nil && normaliser.Supports(normalisers.MIMETypeForPath(path))
}

// ingestFile reads, normalises, stores and indexes one file.
func ingestFile(ctx context.Context, path string, opts ingestOptions) (*domain.Document, *domain.IndexResult, error) {
	if normaliser == nil {
		return nil, nil, errors.New("normaliser not configured")
	}
	if documentService == nil {
		return nil, nil, errors.New("document service not configured")
	}
	if indexerService == nil && !opts.SkipIndex {
		return nil, nil, errors.New("indexer service not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	filename := filepath.Base(path)
	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: normalisers.MIMETypeForPath(path),
		Content:  data,
		Metadata: map[string]any{"filename": filename},
	}
	normalised, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("normalise %s: %w", path, err)
	}

	id, err := documentIDForPath(path)
	if err != nil {
		return nil, nil, err
	}

	doc := &domain.Document{
		ID:       id,
		OwnerID:  opts.OwnerID,
		Title:    normalised.Title,
		Filename: filename,
		Content:  normalised.Content,
		Tags:     opts.Tags,
	}
	if existing, err := documentService.Get(ctx, id); err == nil {
		doc.CreatedAt = existing.CreatedAt
	}
	if err := documentService.Add(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("add %s: %w", path, err)
	}
	logger.Debug("Stored %s as %s (%s)", path, id, normalised.Format)

	if opts.SkipIndex {
		return doc, nil, nil
	}

	result, err := indexerService.IndexDocument(ctx, doc.ID, doc.Content, opts.Index)
	if err != nil {
		return doc, nil, fmt.Errorf("index %s: %w", path, err)
	}
	return doc, result, nil
}

// collectFiles expands directories into the supported files beneath them.
// Hidden files and directories are skipped.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && supportedFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}
