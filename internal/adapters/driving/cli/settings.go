package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/backworkai/vectorsync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the chunk source, embedding provider, vector index
and sync safety settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Configure the chunk source",
	Long: `Configure where chunks are fetched from.

Available sources:
  verity - The Verity chunk builder API (production)
  file   - A local JSON export file (testing, air-gapped runs)`,
	RunE: runSettingsSource,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	RunE:  runSettingsEmbedding,
}

var settingsVectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Configure the vector index",
	RunE:  runSettingsVector,
}

var settingsThresholdCmd = &cobra.Command{
	Use:   "threshold <percent>",
	Short: "Set the safety gate threshold",
	Long: `Set the maximum change percentage a sync may deploy without approval.

Syncs whose change volume exceeds the threshold are paused for review.
The default is 30.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsThreshold,
}

var settingsWebhookCmd = &cobra.Command{
	Use:   "webhook <url>",
	Short: "Set the notification webhook URL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsWebhook,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSourceCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsVectorCmd)
	settingsCmd.AddCommand(settingsThresholdCmd)
	settingsCmd.AddCommand(settingsWebhookCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Source]")
	sourceType := configStore.GetString("source.type")
	if sourceType == "" {
		sourceType = "verity"
	}
	cmd.Printf("  Type: %s\n", sourceType)
	switch sourceType {
	case "file":
		cmd.Printf("  Path: %s\n", configStore.GetString("source.path"))
	default:
		cmd.Printf("  Base URL: %s\n", configStore.GetString("source.base_url"))
		printMaskedKey(cmd, configStore.GetString("source.api_key"))
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	provider := configStore.GetString("embedding.provider")
	if provider == "" {
		provider = "voyage"
	}
	cmd.Printf("  Provider: %s\n", provider)
	if model := configStore.GetString("embedding.model"); model != "" {
		cmd.Printf("  Model: %s\n", model)
	}
	printMaskedKey(cmd, configStore.GetString("embedding.api_key"))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Host: %s\n", configStore.GetString("vector.host"))
	printMaskedKey(cmd, configStore.GetString("vector.api_key"))
	cmd.Println()

	cmd.Println("[Sync]")
	threshold := configStore.GetFloat("sync.safety_threshold")
	if threshold <= 0 {
		threshold = domain.DefaultSafetyThreshold
	}
	cmd.Printf("  Safety threshold: %.0f%%\n", threshold)
	if url := configStore.GetString("notify.webhook_url"); url != "" {
		cmd.Printf("  Webhook: %s\n", url)
	}
	cmd.Println()

	if chunkSource == nil {
		cmd.Println("Chunk source is not configured. Run 'vectorsync settings source'.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSource(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Chunk Source")
	cmd.Println("  1. Verity chunk builder API")
	cmd.Println("  2. Local JSON export file")
	cmd.Print("\nEnter choice [1]: ")
	choice := parseChoice(readLine(reader), 2, 1)

	if choice == 2 {
		cmd.Print("Enter export file path: ")
		path := readLine(reader)
		if path == "" {
			return errors.New("export file path is required")
		}
		if err := configStore.Set("source.type", "file"); err != nil {
			return fmt.Errorf("saving source type: %w", err)
		}
		if err := configStore.Set("source.path", path); err != nil {
			return fmt.Errorf("saving source path: %w", err)
		}
		cmd.Printf("Chunk source configured: file (%s)\n", path)
		return nil
	}

	cmd.Print("Enter base URL: ")
	baseURL := readLine(reader)
	if baseURL == "" {
		return errors.New("base URL is required")
	}
	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := configStore.Set("source.type", "verity"); err != nil {
		return fmt.Errorf("saving source type: %w", err)
	}
	if err := configStore.Set("source.base_url", baseURL); err != nil {
		return fmt.Errorf("saving base URL: %w", err)
	}
	if err := configStore.Set("source.api_key", apiKey); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}

	cmd.Printf("Chunk source configured: verity (%s)\n", baseURL)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Embedding Provider")
	providers := []string{"voyage", "openai"}
	defaults := map[string]string{
		"voyage": "voyage-3-lite",
		"openai": "text-embedding-3-small",
	}
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p)
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	cmd.Printf("Enter model name [%s]: ", defaults[provider])
	model := readLine(reader)
	if model == "" {
		model = defaults[provider]
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := configStore.Set("embedding.provider", provider); err != nil {
		return fmt.Errorf("saving provider: %w", err)
	}
	if err := configStore.Set("embedding.model", model); err != nil {
		return fmt.Errorf("saving model: %w", err)
	}
	if err := configStore.Set("embedding.api_key", apiKey); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider, model)
	return nil
}

func runSettingsVector(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Print("Enter index host (e.g. my-index-abc123.svc.pinecone.io): ")
	host := readLine(reader)
	if host == "" {
		return errors.New("index host is required")
	}
	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := configStore.Set("vector.host", host); err != nil {
		return fmt.Errorf("saving host: %w", err)
	}
	if err := configStore.Set("vector.api_key", apiKey); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}

	cmd.Printf("Vector index configured: %s\n", host)
	return nil
}

func runSettingsThreshold(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	threshold, err := strconv.ParseFloat(args[0], 64)
	if err != nil || threshold <= 0 || threshold > 100 {
		return fmt.Errorf("threshold must be a percentage between 0 and 100, got %q", args[0])
	}

	if err := configStore.Set("sync.safety_threshold", threshold); err != nil {
		return fmt.Errorf("saving threshold: %w", err)
	}

	cmd.Printf("Safety threshold set to %.0f%%.\n", threshold)
	return nil
}

func runSettingsWebhook(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	if len(args) == 0 || args[0] == "" {
		if err := configStore.Set("notify.webhook_url", ""); err != nil {
			return fmt.Errorf("clearing webhook: %w", err)
		}
		cmd.Println("Webhook notifications disabled.")
		return nil
	}

	if err := configStore.Set("notify.webhook_url", args[0]); err != nil {
		return fmt.Errorf("saving webhook: %w", err)
	}

	cmd.Printf("Webhook set: %s\n", args[0])
	return nil
}

// Helper functions.

func printMaskedKey(cmd *cobra.Command, key string) {
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
