package domain

// Chunk is one unit of publishable knowledge produced by the chunk builder.
// The sync engine treats its text as opaque; only the ID and content digest
// participate in change detection.
type Chunk struct {
	// ID is the stable identifier, unique within a chunk set
	// (e.g. "L33822_coverage_criteria_0", "hcpcs_A9276").
	ID string `json:"id"`

	// Text is the chunk content that gets embedded and indexed.
	Text string `json:"text"`

	// Metadata carries routing and display fields. It is not diffed.
	Metadata map[string]any `json:"metadata"`
}

// Type returns the chunk's type from metadata, or empty string if unset.
// The type routes the chunk to a vector index namespace.
func (c Chunk) Type() string {
	if c.Metadata == nil {
		return ""
	}
	t, _ := c.Metadata["type"].(string)
	return t
}

// DefaultNamespace is the catch-all vector index namespace.
const DefaultNamespace = "default"

// NamespaceTable maps chunk types to vector index namespaces.
type NamespaceTable map[string]string

// Resolve returns the namespace for a chunk type, falling back to the
// default namespace for unknown types.
func (t NamespaceTable) Resolve(chunkType string) string {
	if ns, ok := t[chunkType]; ok {
		return ns
	}
	return DefaultNamespace
}

// DefaultNamespaceTable returns the built-in type to namespace mapping.
func DefaultNamespaceTable() NamespaceTable {
	return NamespaceTable{
		"lcd_policy":      "lcd_policies",
		"hcpcs_code":      "hcpcs_codes",
		"denial_reason":   "denial_reasons",
		"documentation":   DefaultNamespace,
		"appeal_strategy": DefaultNamespace,
	}
}
