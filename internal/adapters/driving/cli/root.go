// Package cli provides the recall command line interface built on cobra.
// Commands are package-level and read the services injected by Configure.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// ConfigEditor is a config store that can also enumerate and remove keys.
type ConfigEditor interface {
	driven.ConfigStore
	Keys() []string
	Unset(key string) error
}

// Normaliser converts raw file bytes to text.
type Normaliser interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error)
	Supports(mimeType string) bool
}

// Services holds everything the commands need.
type Services struct {
	Document  driving.DocumentService
	Indexer   driving.IndexerService
	Retriever driving.RetrieverService
	Settings  driving.SettingsService
	Config    ConfigEditor
	Normalise Normaliser

	// Metrics is served at /metrics by the serve command. Optional.
	Metrics http.Handler
}

var (
	documentService  driving.DocumentService
	indexerService   driving.IndexerService
	retrieverService driving.RetrieverService
	settingsService  driving.SettingsService
	configStore      ConfigEditor
	normaliser       Normaliser
	metricsHandler   http.Handler
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Local retrieval-augmented generation engine",
	Long: `recall indexes documents into embedded chunks and retrieves the most
relevant context for a question, packed into a token budget and ready to be
injected into an LLM prompt. Citations of the sources used are recorded.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline debug output")
}

// Configure injects the services used by the commands.
func Configure(s Services) {
	documentService = s.Document
	indexerService = s.Indexer
	retrieverService = s.Retriever
	settingsService = s.Settings
	configStore = s.Config
	normaliser = s.Normalise
	metricsHandler = s.Metrics
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
