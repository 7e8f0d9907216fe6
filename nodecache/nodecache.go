// Copyright (C) 2022, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.

// Package nodecache keeps hardened maps of unloaded levels around, so that
// loading the same geometry again skips the node builder. Cached maps sit
// in the zone under TagCache: the zone may purge them whenever it runs
// short, and a purged map is simply a miss.
package nodecache

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/dolthub/swiss"
	"github.com/dustin/go-humanize"
	"github.com/vogonsorg/Doomsday-Engine-sub001/bsp"
	"github.com/vogonsorg/Doomsday-Engine-sub001/mylogger"
)

var Log = mylogger.Log

type Config struct {
	// Upper bound on the bytes of cached map arrays
	MaxBytes int64
	// Number of keys to track access frequency of, ristretto recommends
	// ten times the number of items expected in a full cache
	Counters int64
}

func DefaultConfig() Config {
	return Config{
		MaxBytes: 4 << 20,
		Counters: 1000,
	}
}

// entry is released by whoever claims it first: the eviction drain, a
// revive or Close
type entry struct {
	fp      uint64
	m       *bsp.Map
	claimed atomic.Bool
}

func (e *entry) claim() bool {
	return e.claimed.CompareAndSwap(false, true)
}

// Cache maps level fingerprints to retired maps. It is meant for the
// goroutine owning the zone: ristretto reports evictions from its own
// goroutines, those are only queued, and maps are released on the next
// call into the cache.
type Cache struct {
	cache *ristretto.Cache[uint64, *entry]

	mu      sync.Mutex
	evicted []*entry
	live    *swiss.Map[uint64, *entry]
}

func New(config Config) (*Cache, error) {
	c := &Cache{live: swiss.NewMap[uint64, *entry](16)}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, *entry]{
		NumCounters:        config.Counters,
		MaxCost:            config.MaxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnExit:             c.onExit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating node cache")
	}
	c.cache = cache
	return c, nil
}

func (c *Cache) onExit(e *entry) {
	if e == nil {
		return
	}
	c.mu.Lock()
	c.evicted = append(c.evicted, e)
	c.mu.Unlock()
}

// Retire hands m over to the cache. The caller must not use m afterwards,
// it gets it back through Revive. A map already cached under fp is
// released.
func (c *Cache) Retire(fp uint64, m *bsp.Map) error {
	c.Drain()
	if !m.Valid() {
		return errors.Newf("retiring map %016x: map was released", fp)
	}
	if old := c.take(fp); old != nil {
		old.m.Release()
	}
	if err := m.Retire(); err != nil {
		return errors.Wrapf(err, "retiring map %016x", fp)
	}

	e := &entry{fp: fp, m: m}
	c.mu.Lock()
	c.live.Put(fp, e)
	c.mu.Unlock()
	if !c.cache.Set(fp, e, int64(m.Bytes())) {
		// dropped on the floor, ristretto won't tell anyone else
		c.forget(e)
		if e.claim() {
			m.Release()
		}
		return nil
	}
	c.cache.Wait()
	Log.Verbose(2, "Node cache: retired map %016x (%s)\n", fp, humanize.IBytes(uint64(m.Bytes())))
	return nil
}

// Revive returns the map cached under fp back in use, or false if there is
// none or the zone purged part of it
func (c *Cache) Revive(fp uint64) (*bsp.Map, bool) {
	c.Drain()
	e := c.take(fp)
	if e == nil {
		return nil, false
	}
	if !e.m.Revive() {
		Log.Verbose(2, "Node cache: map %016x was purged\n", fp)
		return nil, false
	}
	return e.m, true
}

// take claims the entry cached under fp and removes it from the cache
func (c *Cache) take(fp uint64) *entry {
	c.mu.Lock()
	e, _ := c.live.Get(fp)
	c.mu.Unlock()
	if e == nil || !e.claim() {
		return nil
	}
	c.forget(e)
	c.cache.Del(fp)
	c.cache.Wait()
	return e
}

func (c *Cache) forget(e *entry) {
	c.mu.Lock()
	if cur, ok := c.live.Get(e.fp); ok && cur == e {
		c.live.Delete(e.fp)
	}
	c.mu.Unlock()
}

// Drain releases maps ristretto evicted or refused, returning how many
func (c *Cache) Drain() int {
	c.mu.Lock()
	queue := c.evicted
	c.evicted = nil
	c.mu.Unlock()

	released := 0
	for _, e := range queue {
		if !e.claim() {
			continue
		}
		c.forget(e)
		e.m.Release()
		released++
	}
	if released > 0 {
		Log.Verbose(2, "Node cache: released %d evicted maps\n", released)
	}
	return released
}

// Len is the number of maps cached, including those the zone purged
// since
func (c *Cache) Len() int {
	c.Drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.Count()
}

// Close releases every cached map and stops ristretto's goroutines
func (c *Cache) Close() {
	c.cache.Close()
	c.Drain()
	c.mu.Lock()
	live := c.live
	c.live = swiss.NewMap[uint64, *entry](16)
	c.mu.Unlock()
	live.Iter(func(_ uint64, e *entry) bool {
		if e.claim() {
			e.m.Release()
		}
		return false
	})
}
