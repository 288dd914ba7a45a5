package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/dsc2mqtt/internal/types"
)

func TestSaveLoad(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "nested", "cache.json"))
	require.NoError(t, err)

	loaded, err := c.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing cache is not an error")

	data := &types.CacheData{
		Things: []types.CachedThing{
			{Identity: types.PartitionIdentity(1), Name: "House"},
			{Identity: types.ZoneIdentity(1, 12), Name: "Garage"},
		},
		Labels:     map[int]string{12: "Garage"},
		LastUpdate: time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, c.Save(data))

	loaded, err = c.Load()
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	require.NoError(t, c.Delete())
	require.NoError(t, c.Delete())
	loaded, err = c.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c, err := New(path)
	require.NoError(t, err)
	_, err = c.Load()
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, cacheFileName, filepath.Base(c.Path()))
	assert.Contains(t, c.Path(), filepath.Join(".cache", "dsc2mqtt"))
}
