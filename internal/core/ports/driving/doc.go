// Package driving defines the interfaces through which operators drive
// the core (primary ports). CLI, MCP and TUI adapters depend on these.
package driving
