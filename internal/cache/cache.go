// Package cache memoizes computed values per key with TTL classes.
//
// Entries are immutable: a refresh stores a new entry in place of the old
// one, so readers never observe a partially written value. A computation
// that an invalidation would have dropped, had it already been stored,
// returns its result to the caller but does not store it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownClass is returned when a key is requested under an undeclared class.
var ErrUnknownClass = errors.New("cache: unknown class")

// Key identifies a cached value. Tags name the stages the value depends on
// and drive targeted invalidation; an untagged entry depends on everything.
type Key struct {
	Name string
	Tags []string
}

// Observer receives hit/miss notifications per class.
type Observer interface {
	CacheHit(class string)
	CacheMiss(class string)
}

type entry struct {
	value    any
	storedAt time.Time
	class    string
	tags     []string
}

// pending is a computation in progress. It is marked stale by any
// invalidation that would drop its entry.
type pending struct {
	name  string
	class string
	tags  []string
	stale atomic.Bool
}

// Cache is safe for concurrent use.
type Cache struct {
	entries  sync.Map // string -> *entry
	classes  map[string]Class
	now      func() time.Time
	observer Observer
	group    singleflight.Group

	mu       sync.Mutex
	inflight map[*pending]struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver reports hits and misses to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.observer = o
		}
	}
}

// New returns a Cache that accepts the given classes.
func New(classes []Class, opts ...Option) *Cache {
	c := &Cache{
		classes:  make(map[string]Class, len(classes)),
		now:      time.Now,
		inflight: make(map[*pending]struct{}),
	}
	for _, cl := range classes {
		c.classes[cl.Name] = cl
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached value for key if it is younger than its
// class TTL, otherwise it runs compute and stores the result. Errors from
// compute are returned as-is and nothing is stored.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, class string, compute func(context.Context) (any, error)) (any, error) {
	cl, ok := c.classes[class]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownClass, class)
	}
	if v, ok := c.entries.Load(key.Name); ok {
		e := v.(*entry)
		if e.class == class && c.now().Sub(e.storedAt) <= cl.TTL {
			c.hit(class)
			return e.value, nil
		}
	}
	c.miss(class)

	v, err, _ := c.group.Do(key.Name, func() (any, error) {
		p := c.track(key, class)
		defer c.untrack(p)

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if !p.stale.Load() {
			c.entries.Store(key.Name, &entry{
				value:    value,
				storedAt: c.now(),
				class:    class,
				tags:     p.tags,
			})
		}
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// Fetch is the typed form of GetOrCompute.
func Fetch[T any](ctx context.Context, c *Cache, key Key, class string, compute func(context.Context) (T, error)) (T, error) {
	v, err := c.GetOrCompute(ctx, key, class, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key.Name, v)
	}
	return t, nil
}

// Invalidate drops the named keys regardless of age.
func (c *Cache) Invalidate(names ...string) {
	c.markStale(func(p *pending) bool { return slices.Contains(names, p.name) })
	for _, n := range names {
		c.entries.Delete(n)
	}
}

// Notify drops the entries of every class listening to ev. When tags are
// given only entries sharing a tag, or carrying no tags, are dropped.
// It returns the number of entries removed.
func (c *Cache) Notify(ev Event, tags ...string) int {
	c.markStale(func(p *pending) bool { return c.drops(p.class, p.tags, ev, tags) })
	removed := 0
	c.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		if !c.drops(e.class, e.tags, ev, tags) {
			return true
		}
		if c.entries.CompareAndDelete(k, v) {
			removed++
		}
		return true
	})
	return removed
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.markStale(func(*pending) bool { return true })
	c.entries.Clear()
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// drops reports whether ev, scoped to evTags, removes an entry of class
// carrying tags.
func (c *Cache) drops(class string, tags []string, ev Event, evTags []string) bool {
	cl, ok := c.classes[class]
	if !ok || !cl.listens(ev) {
		return false
	}
	return len(evTags) == 0 || len(tags) == 0 || overlaps(tags, evTags)
}

func (c *Cache) track(key Key, class string) *pending {
	p := &pending{name: key.Name, class: class, tags: slices.Clone(key.Tags)}
	c.mu.Lock()
	c.inflight[p] = struct{}{}
	c.mu.Unlock()
	return p
}

func (c *Cache) untrack(p *pending) {
	c.mu.Lock()
	delete(c.inflight, p)
	c.mu.Unlock()
}

// markStale flags matching computations and detaches them from the
// singleflight group so later callers start a fresh computation. Callers
// drop stored entries after markStale returns; a computation stores under
// c.mu, so it either sees the flag or stores before the drop.
func (c *Cache) markStale(match func(*pending) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.inflight {
		if match(p) && !p.stale.Swap(true) {
			c.group.Forget(p.name)
		}
	}
}

func (c *Cache) hit(class string) {
	if c.observer != nil {
		c.observer.CacheHit(class)
	}
}

func (c *Cache) miss(class string) {
	if c.observer != nil {
		c.observer.CacheMiss(class)
	}
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
