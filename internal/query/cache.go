// Package query implements the store-scoped query cache behind the data access
// layer: fetch de-duplication, optimistic local writes and invalidation with
// background refetch.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"

	"github.com/webtray/webtray/internal/metrics"
)

var logger = loggo.GetLogger("webtray.query")

// Fetcher loads the value of one key from the backend.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	// applied is the sequence number of the write that produced data. Every
	// fetch takes a number when it starts and every local write takes one
	// when it happens, so the most recently started write always wins.
	applied uint64
	// gen is bumped by every invalidation; fetches started under an older
	// generation still land but leave the entry stale.
	gen     uint64
	stale   bool
	fetcher Fetcher
	// removed marks a tombstone left by Remove. Fetches from an earlier
	// generation never bring it back.
	removed bool
}

// State describes an entry for display and tests.
type State struct {
	HasData   bool
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

// Cache holds query results keyed by Key. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64

	group     singleflight.Group
	refetches conc.WaitGroup

	clock          clock.Clock
	staleTime      time.Duration
	refetchTimeout time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used for staleness.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithStaleTime sets how long fetched data is served without refetching.
// Zero means every Fetch goes to the backend.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) { c.staleTime = d }
}

// WithRefetchTimeout bounds background refetches and shared loads.
func WithRefetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.refetchTimeout = d }
}

// New creates an empty cache. Data is fresh for a minute by default.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:        make(map[string]*entry),
		clock:          clock.WallClock,
		staleTime:      time.Minute,
		refetchTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fetch(ctx context.Context, key Key, fn Fetcher) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if ok && e.hasData && c.freshLocked(e) {
		data := e.data
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(key.Domain, "hit").Inc()
		return data, nil
	}
	var gen uint64
	result := "miss"
	if ok {
		gen = e.gen
		if e.hasData {
			result = "stale"
		}
	}
	c.mu.Unlock()

	metrics.CacheLookups.WithLabelValues(key.Domain, result).Inc()
	return c.load(ctx, key, gen, fn)
}

// load runs fn once per key and generation. The shared call is detached from
// the caller's cancellation so one caller giving up does not fail the others;
// each caller still stops waiting when its own ctx is done.
func (c *Cache) load(ctx context.Context, key Key, gen uint64, fn Fetcher) (any, error) {
	flight := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flight, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refetchTimeout)
		defer cancel()
		seq := c.nextSeq()
		data, err := fn(shared)
		c.apply(key, seq, gen, data, err, fn)
		return data, err
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

func (c *Cache) apply(key Key, seq, gen uint64, data any, err error, fn Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(key)
	if seq < e.applied || (e.removed && gen < e.gen) {
		logger.Tracef("dropping fetch %d for %s, entry already at %d", seq, key, e.applied)
		return
	}
	e.fetcher = fn
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.hasData = true
	e.removed = false
	e.err = nil
	e.applied = seq
	e.updatedAt = c.clock.Now()
	e.stale = gen < e.gen
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) freshLocked(e *entry) bool {
	if e.stale || c.staleTime <= 0 {
		return false
	}
	return c.clock.Now().Sub(e.updatedAt) < c.staleTime
}

// Peek returns the cached value without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// Set writes data locally, as if it had just been fetched.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	e := c.entryLocked(key)
	e.data = data
	e.hasData = true
	e.removed = false
	e.err = nil
	e.applied = c.seq
	e.updatedAt = c.clock.Now()
}

// Update rewrites an existing entry in place. Entries that hold no data are
// left alone and Update reports false.
func (c *Cache) Update(key Key, fn func(old any) any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return false
	}
	c.seq++
	e.data = fn(e.data)
	e.applied = c.seq
	e.updatedAt = c.clock.Now()
	return true
}

// Remove drops the data held under key. Fetches already in flight for it
// are discarded when they land.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	e := c.entryLocked(key)
	e.data = nil
	e.hasData = false
	e.err = nil
	e.fetcher = nil
	e.stale = true
	e.removed = true
	e.gen++
	e.applied = c.seq
}

// Invalidate marks every entry matching pred stale and refetches the ones
// that know how to in the background. It returns the number of entries hit.
func (c *Cache) Invalidate(pred func(Key) bool) int {
	type refetch struct {
		key Key
		gen uint64
		fn  Fetcher
	}

	c.mu.Lock()
	var pending []refetch
	count := 0
	for _, e := range c.entries {
		if !pred(e.key) || e.removed {
			continue
		}
		count++
		e.gen++
		e.stale = true
		if e.fetcher != nil {
			pending = append(pending, refetch{key: e.key, gen: e.gen, fn: e.fetcher})
		}
	}
	c.mu.Unlock()

	metrics.CacheInvalidations.Add(float64(count))
	for _, r := range pending {
		r := r
		c.refetches.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), c.refetchTimeout)
			defer cancel()
			if _, err := c.load(ctx, r.key, r.gen, r.fn); err != nil {
				logger.Warningf("background refetch of %s failed: %v", r.key, err)
			}
		})
	}
	return count
}

// InvalidateStore invalidates every entry scoped to storeID.
func (c *Cache) InvalidateStore(storeID int64) int {
	if storeID == 0 {
		return 0
	}
	logger.Debugf("invalidating queries of store %d", storeID)
	return c.Invalidate(func(k Key) bool { return k.HasStore(storeID) })
}

// Wait blocks until every background refetch started so far has finished.
func (c *Cache) Wait() {
	c.refetches.Wait()
}

// State reports the entry under key. Unknown and removed keys give the
// zero State.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || e.removed {
		return State{}
	}
	return State{HasData: e.hasData, Stale: e.stale, Err: e.err, UpdatedAt: e.updatedAt}
}

// Clear drops every entry, e.g. on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}
