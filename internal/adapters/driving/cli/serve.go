package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/core/ports/driving"
	"github.com/backworkai/vectorsync/internal/core/services"
	"github.com/backworkai/vectorsync/internal/logger"
)

var flagServeWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background sync scheduler",
	Long: `Runs syncs on a schedule until interrupted.

The interval defaults to 24 hours and can be changed with the
scheduler.interval_hours config key. With --watch, a file chunk source
additionally triggers a sync whenever its export file is rewritten.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "also sync when the chunk export file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}
	if chunkSource == nil {
		return errors.New("no chunk source configured; run 'vectorsync settings source' first")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := loadSchedulerConfig(configStore)
	scheduler := services.NewScheduler(config, store.SchedulerStore(), syncService)

	if flagServeWatch {
		watcher, ok := chunkSource.(driven.ChunkWatcher)
		if !ok {
			return errors.New("--watch requires a file chunk source")
		}
		signals, err := watcher.Watch(ctx)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		go watchLoop(ctx, signals)
		cmd.Println("Watching chunk export for changes.")
	}

	taskCfg := config.GetTaskConfig(domain.TaskIDVectorSync)
	cmd.Printf("Scheduler running, sync every %s. Press Ctrl+C to stop.\n", taskCfg.Interval)

	err := scheduler.Start(ctx)
	stopErr := scheduler.Stop()
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return stopErr
}

// watchLoop runs a sync for every change signal. Failures are logged and
// the loop keeps going; the next signal or scheduled run retries.
func watchLoop(ctx context.Context, signals <-chan struct{}) {
	for range signals {
		logger.Info("chunk export changed, syncing")
		if _, err := syncService.Sync(ctx, driving.SyncOptions{TriggeredBy: domain.TriggerWatch}); err != nil {
			logger.Warn("watch-triggered sync failed: %v", err)
		}
	}
}

// loadSchedulerConfig reads scheduling settings from config, defaulting
// to a daily sync.
func loadSchedulerConfig(cfg driven.ConfigStore) domain.SchedulerConfig {
	config := domain.DefaultSchedulerConfig()

	taskCfg := config.Tasks[domain.TaskIDVectorSync]
	if hours := cfg.GetFloat("scheduler.interval_hours"); hours > 0 {
		taskCfg.Interval = time.Duration(hours * float64(time.Hour))
	}
	if _, ok := cfg.Get("scheduler.enabled"); ok && !cfg.GetBool("scheduler.enabled") {
		taskCfg.Enabled = false
	}
	config.Tasks[domain.TaskIDVectorSync] = taskCfg

	return config
}
