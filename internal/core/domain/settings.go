package domain

import "time"

// SyncSettings controls change gating and deployment throughput.
type SyncSettings struct {
	// SafetyThresholdPercent is the maximum change percentage the safety
	// gate allows before pausing. Default 30.
	SafetyThresholdPercent float64

	// Namespaces maps chunk types to vector index namespaces.
	Namespaces NamespaceTable

	// EmbedBatchSize is the number of chunks embedded and upserted per
	// batch. The embedding provider enforces strict rate limits, so this
	// stays small. Default 10.
	EmbedBatchSize int

	// BatchesPerSecond paces successive upsert batches. A throughput
	// throttle only; correctness never depends on it. Default 0.2
	// (one batch every five seconds).
	BatchesPerSecond float64
}

// DefaultSyncSettings returns sync settings with production defaults.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		SafetyThresholdPercent: DefaultSafetyThreshold,
		Namespaces:             DefaultNamespaceTable(),
		EmbedBatchSize:         10,
		BatchesPerSecond:       0.2,
	}
}

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	// Provider is "voyage" or "openai".
	Provider string

	// Model is the embedding model name (e.g. "voyage-3-lite").
	Model string

	// APIKey authenticates with the provider.
	APIKey string

	// BaseURL overrides the provider's API endpoint.
	BaseURL string
}

// Task identifiers for the scheduler.
const (
	// TaskIDVectorSync is the periodic vector sync task.
	TaskIDVectorSync = "vector_sync"
)

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	// Interval is how often the task runs.
	Interval time.Duration

	// Enabled turns the task on or off.
	Enabled bool
}

// SchedulerConfig holds per-task scheduling configuration.
type SchedulerConfig struct {
	// Tasks maps task IDs to their configuration.
	Tasks map[string]TaskConfig
}

// GetTaskConfig returns the configuration for a task, or a disabled
// default if none is configured.
func (c SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if cfg, ok := c.Tasks[taskID]; ok {
		return cfg
	}
	return TaskConfig{}
}

// DefaultSchedulerConfig returns the default scheduling configuration:
// a daily vector sync, matching the original cron cadence.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Tasks: map[string]TaskConfig{
			TaskIDVectorSync: {Interval: 24 * time.Hour, Enabled: true},
		},
	}
}

// ScheduledTask is the persisted state of a background task.
type ScheduledTask struct {
	// ID is the task identifier (e.g. TaskIDVectorSync).
	ID string

	// Name is the human-readable task name.
	Name string

	// Interval is how often the task runs.
	Interval time.Duration

	// LastRun is when the task last started. Zero if never run.
	LastRun time.Time

	// NextRun is when the task is next due.
	NextRun time.Time

	// LastError is the most recent failure message, empty after a success.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled turns the task on or off.
	Enabled bool
}

// TaskResult records one task execution for history.
type TaskResult struct {
	// TaskID links to the ScheduledTask.
	TaskID string

	// StartedAt is when execution began.
	StartedAt time.Time

	// EndedAt is when execution finished.
	EndedAt time.Time

	// Success indicates whether the execution succeeded.
	Success bool

	// Error is the failure message, if any.
	Error string

	// ItemsProcessed counts chunks changed by the run.
	ItemsProcessed int
}

// PolicyChange is an upstream policy change reported by the chunk
// builder's API. Informational only; surfaced in status output.
type PolicyChange struct {
	// PolicyID identifies the changed policy (e.g. "L33822").
	PolicyID string `json:"policy_id"`

	// ChangeType is created, updated, retired, codes_changed or
	// criteria_changed.
	ChangeType string `json:"change_type"`

	// ChangedAt is when the change was recorded upstream.
	ChangedAt time.Time `json:"changed_at"`
}
