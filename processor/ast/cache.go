package ast

import (
	"context"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of parsed files kept by a CachingParser.
const DefaultCacheSize = 1024

// CachingParser memoizes parse results by absolute path for the duration of one run.
// Cached models are shared between callers and must be treated as read-only.
type CachingParser struct {
	next  FileParser
	cache *lru.Cache[string, *ParsedSourceFile]
}

// NewCachingParser wraps next with an LRU cache of the given size.
func NewCachingParser(next FileParser, size int) (*CachingParser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *ParsedSourceFile](size)
	if err != nil {
		return nil, err
	}
	return &CachingParser{next: next, cache: cache}, nil
}

// ParseFile returns the cached model for filePath or parses and caches it.
func (c *CachingParser) ParseFile(ctx context.Context, filePath string) *ParsedSourceFile {
	key := filePath
	if abs, err := filepath.Abs(filePath); err == nil {
		key = abs
	}

	if f, ok := c.cache.Get(key); ok {
		return f
	}

	f := c.next.ParseFile(ctx, filePath)
	if ctx.Err() == nil {
		c.cache.Add(key, f)
	}
	return f
}

// Len returns the number of cached files.
func (c *CachingParser) Len() int {
	return c.cache.Len()
}
