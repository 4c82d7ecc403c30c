package browse

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sentinel-console/sentinel/internal/auditlog"
)

// FetchFunc loads one fully hydrated entry.
type FetchFunc func(ctx context.Context, id int64) (*auditlog.LogEntry, error)

// DetailCache memoizes hydrated entries by id for the lifetime of one query
// epoch. Lookups for an id already in flight coalesce onto the same fetch, so
// a given id costs at most one network call per epoch. Insertion is
// insert-if-absent: a re-entrant call during a suspended fetch can never
// clobber an entry that already landed.
type DetailCache struct {
	mu      sync.Mutex
	entries map[int64]*auditlog.LogEntry
	group   singleflight.Group
}

// NewDetailCache constructs an empty cache.
func NewDetailCache() *DetailCache {
	return &DetailCache{entries: make(map[int64]*auditlog.LogEntry)}
}

// Get returns the cached entry or fetches and memoizes it.
func (c *DetailCache) Get(ctx context.Context, id int64, fetch FetchFunc) (*auditlog.LogEntry, error) {
	c.mu.Lock()
	if entry, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	c.mu.Unlock()

	value, err, _ := c.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		c.mu.Lock()
		if entry, ok := c.entries[id]; ok {
			c.mu.Unlock()
			return entry, nil
		}
		c.mu.Unlock()

		entry, err := fetch(ctx, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if existing, ok := c.entries[id]; ok {
			entry = existing
		} else {
			c.entries[id] = entry
		}
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*auditlog.LogEntry), nil
}

// Peek reports whether the id is cached without fetching.
func (c *DetailCache) Peek(id int64) (*auditlog.LogEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// Reset drops every memoized entry. Called whenever a new ResultPage lands,
// since a cache scoped to one query epoch must not leak into the next.
func (c *DetailCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]*auditlog.LogEntry)
}

// Len returns the number of memoized entries.
func (c *DetailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
