package parser

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of parse trees kept in a Cache.
const DefaultCacheSize = 128

// Cache memoizes parse results by content. Entries are keyed by the xxhash of
// the source bytes and verified by byte equality, so edited text is always
// reparsed. A nil *Cache is valid and caches nothing.
type Cache struct {
	entries *lru.Cache[uint64, *ParseResult]
}

// NewCache creates a parse cache holding up to size trees.
// A size <= 0 returns nil, which disables caching.
func NewCache(size int) *Cache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[uint64, *ParseResult](size)
	if err != nil {
		return nil
	}
	return &Cache{entries: entries}
}

// Get returns the cached parse of source for lang, if present.
func (c *Cache) Get(source []byte, lang Language) (*ParseResult, bool) {
	if c == nil {
		return nil, false
	}
	result, ok := c.entries.Get(cacheKey(source, lang))
	if !ok || result.Language != lang || !bytes.Equal(result.Source, source) {
		return nil, false
	}
	return result, true
}

// Add stores a parse result.
func (c *Cache) Add(result *ParseResult) {
	if c == nil || result == nil {
		return
	}
	c.entries.Add(cacheKey(result.Source, result.Language), result)
}

// Len returns the number of cached trees.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cacheKey(source []byte, lang Language) uint64 {
	d := xxhash.New()
	d.WriteString(string(lang))
	d.Write([]byte{0})
	d.Write(source)
	return d.Sum64()
}
