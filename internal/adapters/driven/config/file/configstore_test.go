package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.provider", "voyage"))
	require.NoError(t, store.Set("sync.safety_threshold", 30.0))
	require.NoError(t, store.Set("sync.embed_batch_size", 10))
	require.NoError(t, store.Set("scheduler.enabled", true))

	assert.Equal(t, "voyage", store.GetString("embedding.provider"))
	assert.Equal(t, 30.0, store.GetFloat("sync.safety_threshold"))
	assert.Equal(t, 10, store.GetInt("sync.embed_batch_size"))
	assert.True(t, store.GetBool("scheduler.enabled"))
}

func TestGetMissingOrWrongType(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("key", "value"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("key"))
	assert.Equal(t, 0.0, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestGetFloatFromInteger(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("sync.safety_threshold", int64(30)))

	assert.Equal(t, 30.0, store.GetFloat("sync.safety_threshold"))
}

func TestPersistenceAcrossLoads(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("vector.host", "my-index.svc.pinecone.io"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "my-index.svc.pinecone.io", reopened.GetString("vector.host"))
}

func TestLoadFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[embedding]
provider = "voyage"
model = "voyage-3-lite"

[sync.namespaces]
lcd_policy = "lcd_policies"
hcpcs_code = "hcpcs_codes"
`), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "voyage", store.GetString("embedding.provider"))
	assert.Equal(t, "voyage-3-lite", store.GetString("embedding.model"))

	namespaces := store.GetStringMap("sync.namespaces")
	assert.Equal(t, map[string]string{
		"lcd_policy": "lcd_policies",
		"hcpcs_code": "hcpcs_codes",
	}, namespaces)
}

func TestGetStringMapMissing(t *testing.T) {
	store := newTestStore(t)
	assert.Nil(t, store.GetStringMap("sync.namespaces"))
}
