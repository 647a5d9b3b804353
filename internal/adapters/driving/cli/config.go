package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Read and write keys of the configuration file, for example:

  recall config set embedding.provider ollama
  recall config set retrieval.max_chunks 8
  recall config get embedding.model

Changes take effect the next time recall starts.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys set in the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println(heading("Embedding"))
	cmd.Printf("  Provider:    %s\n", settings.Embedding.Provider)
	if settings.Embedding.Model != "" {
		cmd.Printf("  Model:       %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL:    %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.APIKey != "" {
		cmd.Printf("  API key:     %s\n", maskSecret(settings.Embedding.APIKey))
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions:  %d\n", settings.Embedding.Dimensions)
	}

	cmd.Println(heading("Chunking"))
	cmd.Printf("  Size:        %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap:     %d\n", settings.Chunking.Overlap)

	cmd.Println(heading("Retrieval"))
	cmd.Printf("  Max tokens:  %d\n", settings.Retrieval.MaxContextTokens)
	cmd.Printf("  Min score:   %.2f\n", settings.Retrieval.MinRelevanceScore)
	cmd.Printf("  Max chunks:  %d\n", settings.Retrieval.MaxChunks)
	cmd.Printf("  Candidates:  %d\n", settings.Retrieval.CandidateLimit)
	cmd.Printf("  Keyword:     %s\n", settings.Retrieval.KeywordMode)

	cmd.Println(heading("Storage"))
	cmd.Printf("  Driver:      %s\n", settings.Storage.Driver)
	if settings.Cache.RedisAddr != "" {
		cmd.Printf("  Redis cache: %s (ttl %s)\n", settings.Cache.RedisAddr, settings.Cache.TTL)
	}
	cmd.Printf("  Server:      %s\n", settings.Server.Addr)

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("\n%s %v\n", warning("warning:"), err)
	}
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	keys := configStore.Keys()
	if len(keys) == 0 {
		cmd.Printf("No keys set in %s\n", configStore.Path())
		return nil
	}

	sort.Strings(keys)
	for _, k := range keys {
		v, _ := configStore.Get(k)
		cmd.Printf("%s = %s\n", k, displayValue(k, v))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	v, ok := configStore.Get(args[0])
	if !ok {
		return fmt.Errorf("key %q is not set", args[0])
	}
	cmd.Println(displayValue(args[0], v))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, value := args[0], parseValue(args[1])
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if settingsService != nil {
		if err := settingsService.Validate(); err != nil {
			cmd.Printf("%s %v\n", warning("warning:"), err)
		}
	}

	cmd.Printf("Set %s = %s\n", key, displayValue(key, value))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if err := configStore.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("Unset %s\n", args[0])
	return nil
}

// parseValue stores numbers and booleans with their TOML types.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func displayValue(key string, v any) string {
	s := fmt.Sprint(v)
	if strings.HasSuffix(key, "api_key") {
		return maskSecret(s)
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
