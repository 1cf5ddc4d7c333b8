// Package cache stores slicer results on disk, keyed by content hash.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/focal/pkg/config"
)

// Cache is a TTL-bounded directory of JSON entries. A disabled Cache misses
// every lookup and discards every store.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is the on-disk envelope of a cached value.
type Entry struct {
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New creates a cache rooted at dir.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// FromConfig creates a cache from the cache section of cfg.
func FromConfig(cfg config.CacheConfig) (*Cache, error) {
	return New(cfg.Dir, cfg.TTL, cfg.Enabled)
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SliceKey derives the key of a slice of source for focalMethod under the
// given stage toggles. Any change to the text, the focal method or a toggle
// yields a different key.
func SliceKey(source []byte, focalMethod string, stages config.SlicerConfig) string {
	h := blake3.New()
	h.Write([]byte(HashBytes(source)))
	h.Write([]byte{0})
	h.Write([]byte(focalMethod))
	h.Write([]byte{0})
	for _, on := range []bool{stages.PruneFields, stages.PruneImports, stages.PruneClasses} {
		h.Write([]byte(strconv.FormatBool(on)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get decodes the entry stored under key into v. It reports false on a
// miss, an expired entry, or an entry that does not decode.
func (c *Cache) Get(key string, v any) bool {
	if !c.enabled {
		return false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false
	}

	if entry.Hash != key {
		return false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return false
	}

	return json.Unmarshal(entry.Data, v) == nil
}

// Set stores v under key.
func (c *Cache) Set(key string, v any) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	entry := Entry{
		Hash:      key,
		Timestamp: time.Now(),
		Data:      data,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(key), entryData, 0600)
}

// Invalidate removes a cache entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:16])+".json")
}

// Stats summarizes the cache directory.
type Stats struct {
	Dir       string        `json:"dir" toon:"dir"`
	Entries   int           `json:"entries" toon:"entries"`
	TotalSize int64         `json:"total_size" toon:"total_size"`
	OldestAge time.Duration `json:"oldest_age" toon:"oldest_age"`
	NewestAge time.Duration `json:"newest_age" toon:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{Dir: c.dir}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}

	return stats, nil
}
