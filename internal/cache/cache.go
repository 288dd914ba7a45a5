package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/daemonp/dsc2mqtt/internal/types"
)

const cacheFileName = "dsc2mqtt_cache.json"

// Cache persists discovered things as JSON. The zero value is not usable;
// use New.
type Cache struct {
	path string
}

// New returns a cache stored at path, or under ~/.cache/dsc2mqtt when path
// is empty.
func New(path string) (*Cache, error) {
	if path == "" {
		cacheDir, err := getCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get cache directory: %v", err)
		}
		path = filepath.Join(cacheDir, cacheFileName)
	}
	return &Cache{path: path}, nil
}

func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) Save(cacheData *types.CacheData) error {
	data, err := json.Marshal(cacheData)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	err = os.MkdirAll(filepath.Dir(c.path), 0755)
	if err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}

	tmp := c.path + ".tmp"
	err = os.WriteFile(tmp, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write cache file: %v", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %v", err)
	}

	return nil
}

// Load returns nil without an error when nothing has been cached yet.
func (c *Cache) Load() (*types.CacheData, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %v", err)
	}

	var cacheData types.CacheData
	err = json.Unmarshal(data, &cacheData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %v", err)
	}

	return &cacheData, nil
}

func (c *Cache) Delete() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %v", err)
	}
	return nil
}

func getCacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".cache", "dsc2mqtt"), nil
}
