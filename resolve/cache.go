package resolve

import (
	"log/slog"
	"sync"

	"symres/host"
)

// Cache is one two-level map of predicate identity to per-module symbol
// indexes. It can be shared between TypeLoader instances: loaders built
// around the same *Predicate then reuse each other's scans.
//
// Entries are never removed; memory grows with the number of distinct
// (predicate, module) pairs ever resolved against.
type Cache struct {
	mu           sync.RWMutex
	perPredicate map[*Predicate]*moduleIndexes
}

// moduleIndexes holds the per-module indexes of a single predicate.
type moduleIndexes struct {
	mu       sync.Mutex
	byModule map[host.ModuleLoadInfo]*moduleIndex
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{perPredicate: make(map[*Predicate]*moduleIndexes)}
}

// indexFor finds or creates the index for a (predicate, module) pair.
// Both map locks are short-held: the expensive load/scan work happens later
// under the index's own mutex, so unrelated pairs never contend here.
func (c *Cache) indexFor(pred *Predicate, info host.ModuleLoadInfo, h host.Host, log *slog.Logger) *moduleIndex {
	c.mu.RLock()
	set := c.perPredicate[pred]
	c.mu.RUnlock()

	if set == nil {
		c.mu.Lock()
		set = c.perPredicate[pred]
		if set == nil {
			set = &moduleIndexes{byModule: make(map[host.ModuleLoadInfo]*moduleIndex)}
			c.perPredicate[pred] = set
		}
		c.mu.Unlock()
	}

	set.mu.Lock()
	defer set.mu.Unlock()

	idx := set.byModule[info]
	if idx == nil {
		idx = newModuleIndex(pred, info, h, log)
		set.byModule[info] = idx
	}

	return idx
}

// Caches bundles the two independent cache variants: one for normal
// (executing) loads and one for inspection-only loads.
type Caches struct {
	Run     *Cache
	Inspect *Cache
}

// NewCaches returns an empty cache pair.
func NewCaches() *Caches {
	return &Caches{Run: NewCache(), Inspect: NewCache()}
}
