package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStore_RoundTrip(t *testing.T) {
	store, err := NewJSONStore(t.TempDir(), "things.json")
	require.NoError(t, err)

	in := map[string][]string{"alice": {"Goa", "Paris"}}
	require.NoError(t, store.Save(in))

	out := make(map[string][]string)
	require.NoError(t, store.Load(&out))
	assert.Equal(t, in, out)
}

func TestJSONStore_LoadMissingFile(t *testing.T) {
	store, err := NewJSONStore(t.TempDir(), "missing.json")
	require.NoError(t, err)

	out := make(map[string]string)
	require.NoError(t, store.Load(&out))
	assert.Empty(t, out)
}
