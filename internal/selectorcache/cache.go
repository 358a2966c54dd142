// Package selectorcache provides an LRU-backed cache of compiled glob and
// PCRE patterns shared across selector.Query evaluations, generalized from
// the teacher's regex-only RegexCache (internal/business/routing/matcher_cache.go)
// onto a real generic LRU implementation instead of a hand-rolled
// container/list one.
package selectorcache

import (
	"regexp"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats tracks cumulative hit/miss counts, read with atomic loads so callers
// can expose them as a Prometheus gauge without holding a lock.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats, safe to pass by value
// (Stats itself holds atomic.Int64 fields that must not be copied).
type StatsSnapshot struct {
	Hits   int64
	Misses int64
}

// Cache memoizes compiled glob and PCRE regexps by their source pattern. A
// nil *Cache is valid and simply compiles on every call, matching the
// teacher's "caching is an optimization, not a correctness requirement"
// stance.
type Cache struct {
	globs *lru.Cache[string, *regexp.Regexp]
	pcres *lru.Cache[string, *regexp.Regexp]
	stats Stats
}

// New creates a Cache holding up to size compiled patterns per kind (glob,
// pcre each get their own LRU of the given size). size<=0 falls back to a
// sensible default of 512, mirroring the teacher's DefaultMatcherOptions
// CacheSize.
func New(size int) *Cache {
	if size <= 0 {
		size = 512
	}
	globs, _ := lru.New[string, *regexp.Regexp](size)
	pcres, _ := lru.New[string, *regexp.Regexp](size)
	return &Cache{globs: globs, pcres: pcres}
}

// Stats returns a snapshot of the cache's cumulative hit/miss counters. Safe
// to call on a nil *Cache.
func (c *Cache) Stats() StatsSnapshot {
	if c == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{Hits: c.stats.hits.Load(), Misses: c.stats.misses.Load()}
}

// Glob returns the compiled anchored regexp for a translated glob pattern,
// compiling and storing it via compile on a miss.
func (c *Cache) Glob(source string, compile func() (*regexp.Regexp, error)) (*regexp.Regexp, error) {
	return c.lookup(c.globsOrNil(), source, compile)
}

// PCRE returns the compiled anchored regexp for a PCRE pattern, compiling
// and storing it via compile on a miss.
func (c *Cache) PCRE(source string, compile func() (*regexp.Regexp, error)) (*regexp.Regexp, error) {
	return c.lookup(c.pcresOrNil(), source, compile)
}

func (c *Cache) globsOrNil() *lru.Cache[string, *regexp.Regexp] {
	if c == nil {
		return nil
	}
	return c.globs
}

// Len reports the current number of entries held in each bucket, for
// exporting as gauge metrics. Safe to call on a nil *Cache.
func (c *Cache) Len() (globs, pcres int) {
	if c == nil {
		return 0, 0
	}
	return c.globs.Len(), c.pcres.Len()
}

func (c *Cache) pcresOrNil() *lru.Cache[string, *regexp.Regexp] {
	if c == nil {
		return nil
	}
	return c.pcres
}

func (c *Cache) lookup(bucket *lru.Cache[string, *regexp.Regexp], source string, compile func() (*regexp.Regexp, error)) (*regexp.Regexp, error) {
	if bucket != nil {
		if re, ok := bucket.Get(source); ok {
			if c != nil {
				c.stats.hits.Add(1)
			}
			return re, nil
		}
	}
	if c != nil {
		c.stats.misses.Add(1)
	}
	re, err := compile()
	if err != nil {
		return nil, err
	}
	if bucket != nil {
		bucket.Add(source, re)
	}
	return re, nil
}
