package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// ChunkDigest returns a stable hex digest of a chunk's text.
// SHA-256 is used deliberately: the digest must survive process restarts,
// so a per-process seeded hash would produce false "changed" detections.
func ChunkDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Fingerprint computes a content hash over an entire chunk set.
// Chunks are sorted by ID before hashing, so two fetches that produce the
// same logical content in a different order yield the same fingerprint.
func Fingerprint(chunks []Chunk) string {
	type record struct {
		id     string
		digest string
	}

	records := make([]record, len(chunks))
	for i, c := range chunks {
		records[i] = record{id: c.ID, digest: ChunkDigest(c.Text)}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].id < records[j].id })

	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(r.id))
		h.Write([]byte{'\n'})
		h.Write([]byte(r.digest))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ChangeSet summarises the difference between two chunk sets.
type ChangeSet struct {
	// Added is the count of IDs present in the new set but not the old.
	Added int `json:"added"`

	// Updated is the count of IDs present in both sets whose content differs.
	Updated int `json:"updated"`

	// Removed is the count of IDs present in the old set but not the new.
	Removed int `json:"removed"`
}

// Total returns the total number of changed items.
func (c ChangeSet) Total() int {
	return c.Added + c.Updated + c.Removed
}

// IsZero returns true if nothing changed.
func (c ChangeSet) IsZero() bool {
	return c.Total() == 0
}

// Diff compares a candidate chunk set against the previously active set.
// An item is "updated" when its ID exists in both sets but its content
// digest differs. No item is double-counted.
func Diff(oldChunks, newChunks []Chunk) ChangeSet {
	oldByID := make(map[string]string, len(oldChunks))
	for _, c := range oldChunks {
		oldByID[c.ID] = ChunkDigest(c.Text)
	}

	var changes ChangeSet
	newIDs := make(map[string]struct{}, len(newChunks))
	for _, c := range newChunks {
		newIDs[c.ID] = struct{}{}
		oldDigest, ok := oldByID[c.ID]
		switch {
		case !ok:
			changes.Added++
		case oldDigest != ChunkDigest(c.Text):
			changes.Updated++
		}
	}

	for id := range oldByID {
		if _, ok := newIDs[id]; !ok {
			changes.Removed++
		}
	}

	return changes
}

// ChangePercent returns the change percentage relative to the previous
// chunk count. Defined as 0 when oldCount is 0, so a first-ever sync is
// never blocked by the safety gate.
func ChangePercent(oldCount int, changes ChangeSet) float64 {
	if oldCount == 0 {
		return 0
	}
	return float64(changes.Total()) / float64(oldCount) * 100
}
