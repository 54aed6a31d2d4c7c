// Package file provides a chunk source backed by a JSON chunk export on
// disk, the format the chunk builder writes when run locally.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/logger"
)

// Ensure Source implements the interfaces.
var (
	_ driven.ChunkSource  = (*Source)(nil)
	_ driven.ChunkWatcher = (*Source)(nil)
)

// Source reads chunks from a JSON export file. The file holds either a
// bare array of chunks or an object with a "chunks" key.
type Source struct {
	path string
}

// export is the wrapped chunk export format.
type export struct {
	Chunks []domain.Chunk `json:"chunks"`
}

// NewSource creates a file-backed chunk source.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("file source: path is required")
	}
	return &Source{path: path}, nil
}

// FetchChunks reads and parses the export file.
func (s *Source) FetchChunks(ctx context.Context) ([]domain.Chunk, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk export: %w", err)
	}

	// Try the bare array form first, then the wrapped form.
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err == nil {
		return chunks, nil
	}

	var wrapped export
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing chunk export %s: %w", s.path, err)
	}
	return wrapped.Chunks, nil
}

// Watch emits a signal whenever the export file is rewritten. The watch
// covers the parent directory because exporters typically replace the
// file via rename.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	signals := make(chan struct{}, 1)

	go func() {
		defer watcher.Close()
		defer close(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case signals <- struct{}{}:
				default:
					// A signal is already pending; coalesce.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("chunk export watcher: %v", err)
			}
		}
	}()

	return signals, nil
}
