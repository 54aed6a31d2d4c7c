package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func chunk(id, text string) Chunk {
	return Chunk{ID: id, Text: text, Metadata: map[string]any{"type": "lcd_policy"}}
}

func TestFingerprintOrderIndependent(t *testing.T) {
	a := []Chunk{chunk("a", "alpha"), chunk("b", "beta"), chunk("c", "gamma")}
	b := []Chunk{chunk("c", "gamma"), chunk("a", "alpha"), chunk("b", "beta")}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDetectsContentChange(t *testing.T) {
	a := []Chunk{chunk("a", "alpha"), chunk("b", "beta")}
	b := []Chunk{chunk("a", "alpha"), chunk("b", "beta v2")}

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDetectsIDChange(t *testing.T) {
	a := []Chunk{chunk("a", "alpha")}
	b := []Chunk{chunk("b", "alpha")}

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintStableAcrossCalls(t *testing.T) {
	chunks := []Chunk{chunk("a", "alpha")}
	assert.Equal(t, Fingerprint(chunks), Fingerprint(chunks))
}

func TestDiffEmptyOldSet(t *testing.T) {
	newChunks := []Chunk{chunk("a", "alpha"), chunk("b", "beta")}

	changes := Diff(nil, newChunks)

	assert.Equal(t, ChangeSet{Added: 2}, changes)
}

func TestDiffAddedUpdatedRemoved(t *testing.T) {
	oldChunks := []Chunk{
		chunk("keep", "same"),
		chunk("change", "old text"),
		chunk("drop", "going away"),
	}
	newChunks := []Chunk{
		chunk("keep", "same"),
		chunk("change", "new text"),
		chunk("fresh", "brand new"),
	}

	changes := Diff(oldChunks, newChunks)

	assert.Equal(t, ChangeSet{Added: 1, Updated: 1, Removed: 1}, changes)
	assert.Equal(t, 3, changes.Total())
}

func TestDiffIdenticalSets(t *testing.T) {
	chunks := []Chunk{chunk("a", "alpha"), chunk("b", "beta")}

	changes := Diff(chunks, chunks)

	assert.True(t, changes.IsZero())
}

func TestDiffNoDoubleCounting(t *testing.T) {
	// A chunk that is both renamed and reworded counts once as added
	// (new ID) and once as removed (old ID), never as updated.
	oldChunks := []Chunk{chunk("old_id", "text one")}
	newChunks := []Chunk{chunk("new_id", "text two")}

	changes := Diff(oldChunks, newChunks)

	assert.Equal(t, ChangeSet{Added: 1, Removed: 1}, changes)
}

func TestChangePercent(t *testing.T) {
	assert.Equal(t, 0.0, ChangePercent(0, ChangeSet{Added: 50}))
	assert.Equal(t, 30.0, ChangePercent(100, ChangeSet{Added: 10, Updated: 10, Removed: 10}))
	assert.Equal(t, 60.0, ChangePercent(10, ChangeSet{Removed: 6}))
}

func TestDiffLargeSets(t *testing.T) {
	var oldChunks, newChunks []Chunk
	for i := 0; i < 500; i++ {
		oldChunks = append(oldChunks, chunk(fmt.Sprintf("c%d", i), fmt.Sprintf("text %d", i)))
	}
	// Keep 490, update 5, remove 10 (indexes 490-499), add 5 new.
	for i := 0; i < 490; i++ {
		text := fmt.Sprintf("text %d", i)
		if i < 5 {
			text = "updated"
		}
		newChunks = append(newChunks, chunk(fmt.Sprintf("c%d", i), text))
	}
	for i := 0; i < 5; i++ {
		newChunks = append(newChunks, chunk(fmt.Sprintf("new%d", i), "added"))
	}

	changes := Diff(oldChunks, newChunks)

	assert.Equal(t, ChangeSet{Added: 5, Updated: 5, Removed: 10}, changes)
}
