package csharp

import (
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries is the default number of analyzed files kept in memory.
const DefaultCacheEntries = 1024

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// AnalysisCache keeps file analyses keyed by path, size and modification time,
// so files shared between projects are parsed once per process.
type AnalysisCache struct {
	entries *lru.Cache[cacheKey, *FileAnalysis]
}

// NewAnalysisCache creates a cache holding up to size analyses.
func NewAnalysisCache(size int) (*AnalysisCache, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}

	entries, err := lru.New[cacheKey, *FileAnalysis](size)
	if err != nil {
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	return &AnalysisCache{entries: entries}, nil
}

func (c *AnalysisCache) key(path string, info os.FileInfo) cacheKey {
	return cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}
}

// Get returns a cached analysis for the file state described by info.
func (c *AnalysisCache) Get(path string, info os.FileInfo) (*FileAnalysis, bool) {
	if c == nil {
		return nil, false
	}

	return c.entries.Get(c.key(path, info))
}

// Add stores an analysis.
func (c *AnalysisCache) Add(path string, info os.FileInfo, fa *FileAnalysis) {
	if c == nil {
		return
	}

	c.entries.Add(c.key(path, info), fa)
}

// Len returns the number of cached analyses.
func (c *AnalysisCache) Len() int {
	if c == nil {
		return 0
	}

	return c.entries.Len()
}
