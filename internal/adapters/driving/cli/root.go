// Package cli implements the vectorsync command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backworkai/vectorsync/internal/adapters/driven/chunks/file"
	"github.com/backworkai/vectorsync/internal/adapters/driven/chunks/verity"
	configfile "github.com/backworkai/vectorsync/internal/adapters/driven/config/file"
	"github.com/backworkai/vectorsync/internal/adapters/driven/embedding"
	"github.com/backworkai/vectorsync/internal/adapters/driven/notify/webhook"
	"github.com/backworkai/vectorsync/internal/adapters/driven/storage/sqlite"
	"github.com/backworkai/vectorsync/internal/adapters/driven/vector/pinecone"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
	"github.com/backworkai/vectorsync/internal/core/services"
	"github.com/backworkai/vectorsync/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Package-level services, wired by initServices before any command runs.
var (
	configStore   driven.ConfigStore
	store         *sqlite.Store
	chunkSource   driven.ChunkSource
	snapshotStore driven.SnapshotStore
	historyStore  driven.SyncHistoryStore
	syncService   driving.SyncService
)

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "vectorsync",
	Short: "Versioned snapshot sync for the coverage vector index",
	Long: `vectorsync publishes knowledge chunks to the vector index through
versioned, immutable snapshots.

Each sync fetches the current chunk set from the chunk builder, diffs it
against the active snapshot, and deploys only when the change volume is
within the safety threshold. Every chunk set ever deployed is preserved,
so any past state can be redeployed with a single rollback.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.vectorsync)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data", "", "data directory (default ~/.vectorsync/data)")
}

// Execute runs the root command.
func Execute() {
	defer closeServices()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeServices()
		os.Exit(1)
	}
}

// initServices wires adapters into the core services from configuration.
// Adapters whose configuration is absent stay nil; commands that need
// them fail with a pointed message instead of at startup.
func initServices() error {
	if syncService != nil {
		return nil // Already initialised
	}

	cfg, err := configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	configStore = cfg

	store, err = sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	snapshotStore = store.SnapshotStore()
	historyStore = store.SyncHistoryStore()

	chunkSource, err = buildChunkSource(cfg)
	if err != nil {
		return err
	}

	settings := loadSyncSettings(cfg)

	var embedder driven.EmbeddingService
	if apiKey := cfg.GetString("embedding.api_key"); apiKey != "" {
		embedder, err = embedding.NewFromSettings(domain.EmbeddingSettings{
			Provider: cfg.GetString("embedding.provider"),
			Model:    cfg.GetString("embedding.model"),
			APIKey:   apiKey,
			BaseURL:  cfg.GetString("embedding.base_url"),
		})
		if err != nil {
			return fmt.Errorf("configuring embedding provider: %w", err)
		}
	}

	var index driven.VectorIndex
	if host := cfg.GetString("vector.host"); host != "" {
		index, err = pinecone.NewIndex(pinecone.Config{
			APIKey: cfg.GetString("vector.api_key"),
			Host:   host,
		})
		if err != nil {
			return fmt.Errorf("configuring vector index: %w", err)
		}
	}

	var notifier driven.Notifier
	if url := cfg.GetString("notify.webhook_url"); url != "" {
		notifier, err = webhook.NewNotifier(webhook.Config{URL: url})
		if err != nil {
			return fmt.Errorf("configuring notifier: %w", err)
		}
	}

	deployer := services.NewDeployer(embedder, index, settings)
	syncService = services.NewSyncOrchestrator(chunkSource, snapshotStore, historyStore, deployer, notifier, settings)

	return nil
}

// buildChunkSource constructs the chunk source named by source.type.
func buildChunkSource(cfg driven.ConfigStore) (driven.ChunkSource, error) {
	switch sourceType := cfg.GetString("source.type"); sourceType {
	case "file":
		return file.NewSource(cfg.GetString("source.path"))
	case "verity", "":
		baseURL := cfg.GetString("source.base_url")
		apiKey := cfg.GetString("source.api_key")
		if baseURL == "" || apiKey == "" {
			// Not configured yet; leave nil so settings commands still work.
			return nil, nil
		}
		return verity.NewSource(verity.Config{BaseURL: baseURL, APIKey: apiKey})
	default:
		return nil, fmt.Errorf("unknown source type %q", sourceType)
	}
}

// loadSyncSettings reads sync tuning from config, falling back to
// production defaults for anything unset.
func loadSyncSettings(cfg driven.ConfigStore) domain.SyncSettings {
	settings := domain.DefaultSyncSettings()

	if threshold := cfg.GetFloat("sync.safety_threshold"); threshold > 0 {
		settings.SafetyThresholdPercent = threshold
	}
	if batchSize := cfg.GetInt("sync.embed_batch_size"); batchSize > 0 {
		settings.EmbedBatchSize = batchSize
	}
	if rate := cfg.GetFloat("sync.batches_per_second"); rate > 0 {
		settings.BatchesPerSecond = rate
	}
	if namespaces := cfg.GetStringMap("sync.namespaces"); len(namespaces) > 0 {
		table := make(domain.NamespaceTable, len(namespaces))
		for chunkType, ns := range namespaces {
			table[chunkType] = ns
		}
		settings.Namespaces = table
	}

	return settings
}

// closeServices releases held resources.
func closeServices() {
	if store != nil {
		store.Close() //nolint:errcheck
		store = nil
	}
}
