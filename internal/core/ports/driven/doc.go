// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChunkSource: fetches the candidate chunk set from the chunk builder
//   - SnapshotStore: versioned snapshot persistence with atomic activation
//   - SyncHistoryStore: append-only sync run ledger
//   - EmbeddingService: generates vector embeddings
//   - VectorIndex: writes vectors to the external index
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
//   - Notifier: best-effort outcome notifications; nil disables them
//   - SchedulerStore: background task persistence, only needed by serve
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter package
package driven
