// Package memkv is a small sharded in-memory key/value store. It backs the
// registry's service table: values are opaque encoded records, reads return
// defensive copies, and atomic metrics expose table activity without
// touching the shard locks.
package memkv

import (
	"sync"
	"sync/atomic"
)

const defaultShards = 64

// Options tunes the store. The zero value is usable.
type Options struct {
	// Shards is rounded up to a power of two; 0 means defaultShards.
	Shards int
}

// Metrics is a point-in-time snapshot of store counters.
type Metrics struct {
	Keys   uint64
	Bytes  uint64
	Sets   uint64
	Gets   uint64
	Hits   uint64
	Misses uint64
	Dels   uint64
}

type shard struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// Store is safe for concurrent use by any number of goroutines.
type Store struct {
	shards []*shard
	mask   uint32

	keys   atomic.Uint64
	bytes  atomic.Uint64
	sets   atomic.Uint64
	gets   atomic.Uint64
	hits   atomic.Uint64
	misses atomic.Uint64
	dels   atomic.Uint64
}

// New creates a store.
func New(o Options) *Store {
	n := o.Shards
	if n <= 0 {
		n = defaultShards
	}
	// round up to a power of two so lookups can mask instead of mod
	p := 1
	for p < n {
		p <<= 1
	}
	s := &Store{shards: make([]*shard, p), mask: uint32(p - 1)}
	for i := range s.shards {
		s.shards[i] = &shard{m: make(map[string][]byte)}
	}
	return s
}

// fnv-1a
func hash(key string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}

func (s *Store) shardFor(key string) *shard { return s.shards[hash(key)&s.mask] }

func negate(n uint64) uint64 { return ^n + 1 }

// Set stores a copy of val under key and reports whether the key was new.
func (s *Store) Set(key string, val []byte) (created bool) {
	cp := append([]byte(nil), val...)
	sh := s.shardFor(key)
	sh.mu.Lock()
	old, existed := sh.m[key]
	sh.m[key] = cp
	sh.mu.Unlock()

	s.sets.Add(1)
	if existed {
		s.bytes.Add(uint64(len(cp)) + negate(uint64(len(old))))
	} else {
		s.keys.Add(1)
		s.bytes.Add(uint64(len(cp)))
	}
	return !existed
}

// Get returns a copy of the value.
func (s *Store) Get(key string) ([]byte, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()

	s.gets.Add(1)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return append([]byte(nil), v...), true
}

// GetDel atomically reads and removes key.
func (s *Store) GetDel(key string) ([]byte, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	v, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()

	s.gets.Add(1)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	s.dels.Add(1)
	s.keys.Add(negate(1))
	s.bytes.Add(negate(uint64(len(v))))
	return v, true
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	v, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()
	if ok {
		s.dels.Add(1)
		s.keys.Add(negate(1))
		s.bytes.Add(negate(uint64(len(v))))
	}
	return ok
}

// Len reports the number of live keys.
func (s *Store) Len() int { return int(s.keys.Load()) }

// Snapshot returns the current metric counters.
func (s *Store) Snapshot() Metrics {
	return Metrics{
		Keys:   s.keys.Load(),
		Bytes:  s.bytes.Load(),
		Sets:   s.sets.Load(),
		Gets:   s.gets.Load(),
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Dels:   s.dels.Load(),
	}
}
