// Package cache memoizes parsed templates keyed by their source text and
// starting delimiters.
//
// Lookups take a read lock; a miss parses outside any lock, with concurrent
// misses for the same source collapsed into a single parse through
// singleflight. Failed parses are never stored.
package cache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-mustache/pkg/parse"
)

// Default is the process-wide cache used when callers do not supply their own.
var Default = New()

type key struct {
	open   string
	close  string
	source string
}

// Cache maps template source to its parsed tree.
type Cache struct {
	mu        sync.RWMutex
	templates map[key]*parse.Template
	group     singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache counters.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		templates: make(map[key]*parse.Template),
	}
}

// Get returns the parsed template for source, parsing it on first use with
// the default delimiters.
func (c *Cache) Get(source string) (*parse.Template, error) {
	return c.GetWithDelims(source, parse.DefaultDelims)
}

// GetWithDelims returns the parsed template for source when parsing starts
// with delims.
func (c *Cache) GetWithDelims(source string, delims parse.Delims) (*parse.Template, error) {
	delims = delims.OrDefault()
	k := key{open: delims.Open, close: delims.Close, source: source}

	c.mu.RLock()
	if tmpl, ok := c.templates[k]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return tmpl, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(flightKey(k), func() (any, error) {
		c.mu.RLock()
		tmpl, ok := c.templates[k]
		c.mu.RUnlock()
		if ok {
			return tmpl, nil
		}

		tmpl, err := parse.Parse(source, parse.WithDelims(delims))
		if err != nil {
			return nil, err
		}

		c.misses.Add(1)
		c.mu.Lock()
		c.templates[k] = tmpl
		c.mu.Unlock()
		return tmpl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*parse.Template), nil
}

// Contains reports whether source has been parsed with the default delimiters.
func (c *Cache) Contains(source string) bool {
	return c.ContainsWithDelims(source, parse.DefaultDelims)
}

// ContainsWithDelims reports whether source has been parsed starting with
// delims.
func (c *Cache) ContainsWithDelims(source string, delims parse.Delims) bool {
	delims = delims.OrDefault()
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.templates[key{open: delims.Open, close: delims.Close, source: source}]
	return ok
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.templates), Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Purge drops every cached template.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = make(map[key]*parse.Template)
	c.hits.Store(0)
	c.misses.Store(0)
}

func flightKey(k key) string {
	return k.open + "\x00" + k.close + "\x00" + k.source
}
