package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/normalisers"
)

// setupTestServices wires the commands to in-memory services.
func setupTestServices(t *testing.T) {
	t.Helper()

	docs := memory.NewDocumentStore()
	indexer := services.NewIndexerService(docs, docs, local.NewEmbeddingService(64))
	retriever := services.NewRetrieverService(indexer, docs, memory.NewCitationStore(docs))
	retriever.SetPoolStore(memory.NewPoolStore())
	cfg := memory.NewConfigStore()

	Configure(Services{
		Document:  services.NewDocumentService(docs, indexer),
		Indexer:   indexer,
		Retriever: retriever,
		Settings:  services.NewSettingsService(cfg),
		Config:    cfg,
		Normalise: normalisers.DefaultRegistry(),
	})
	resetFlags()
	t.Cleanup(func() {
		Configure(Services{})
		resetFlags()
	})
}

// resetFlags restores flag variables, which cobra keeps between executions.
func resetFlags() {
	addOwner, addTags, addNoIndex, addSkipEmb, addSize, addOverlap = "", nil, false, false, 0, 0
	indexWatch, indexOwner, indexSkipEmb = false, "", false
	searchLimit, searchMinScore, searchDocs, searchKeyword, searchJSON = 10, 0, nil, false, false
	retrieveFlags, retrieveJSON = retrievalFlags{}, false
	promptFlags, promptBase, promptSession, promptMessage = retrievalFlags{}, "You are a helpful assistant.", "", ""
	documentOwner, documentContent = "", false
	reindexSkipEmb, reindexSize, reindexOverlap = false, 0, 0
	citationsOwner, citationsLimit = "", 10
	serveAddr = ""
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
