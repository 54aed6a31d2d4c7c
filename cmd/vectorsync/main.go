// Command vectorsync publishes knowledge chunks to the vector index
// through versioned, immutable snapshots.
package main

import (
	"github.com/backworkai/vectorsync/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
