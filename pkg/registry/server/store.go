package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/codec"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/memkv"
)

// record is the stored form of one registration.
type record struct {
	Service      string `cbor:"service"`
	Host         string `cbor:"host"`
	Port         int    `cbor:"port"`
	RegisteredMS int64  `cbor:"registered_unix_ms"`
}

// table is the service table: CBOR records in a memkv store, plus a name
// index for enumeration. All mutations go through the exclusive lock; the
// built-in network-info service snapshots names under it and must never do
// network I/O while holding it.
type table struct {
	mu    sync.RWMutex
	names map[string]struct{}
	kv    *memkv.Store
	cbor  codec.Codec
}

func newTable() *table {
	return &table{
		names: make(map[string]struct{}),
		kv:    memkv.New(memkv.Options{}),
		cbor:  codec.MustCBOR(),
	}
}

// register stores or overwrites name -> (host, port).
func (t *table) register(name, host string, port int) error {
	rec := record{Service: name, Host: host, Port: port, RegisteredMS: time.Now().UnixMilli()}
	val, err := t.cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("registry: encode record for %q: %w", name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.names[name] = struct{}{}
	t.kv.Set(name, val)
	return nil
}

// lookup resolves name to its record.
func (t *table) lookup(name string) (record, bool) {
	t.mu.RLock()
	val, ok := t.kv.Get(name)
	t.mu.RUnlock()
	if !ok {
		return record{}, false
	}
	var rec record
	if err := t.cbor.Unmarshal(val, &rec); err != nil {
		return record{}, false
	}
	return rec, true
}

// remove deletes name, returning the removed record when it existed.
func (t *table) remove(name string) (record, bool) {
	t.mu.Lock()
	delete(t.names, name)
	val, ok := t.kv.GetDel(name)
	t.mu.Unlock()
	if !ok {
		return record{}, false
	}
	var rec record
	if err := t.cbor.Unmarshal(val, &rec); err != nil {
		return record{}, true
	}
	return rec, true
}

// size reports the number of registered services.
func (t *table) size() int { return t.kv.Len() }

// metrics exposes the backing store's counters for shutdown reporting.
func (t *table) metrics() memkv.Metrics { return t.kv.Snapshot() }

// namesWithPrefix snapshots the registered names starting with prefix, in
// sorted order. The lock is released before the caller does anything slow.
func (t *table) namesWithPrefix(prefix string) []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.names))
	for n := range t.names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, n)
		}
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}
