package storage

import (
	"sync"
	"sync/atomic"
)

// shard is one segment of the keyspace. Its mutex is only taken through a Scope
// or by the expiry sampler
type shard struct {
	data    map[string]*Entity // key - value
	expires map[string]int64   // key - expires time nanoseconds
	mu      sync.Mutex

	clock   *atomic.Uint64 // the keyspace version clock
	removed uint64         // clock value of the latest removal, reported as the version of absent keys
}

func newShard(clock *atomic.Uint64) *shard {
	return &shard{
		data:    make(map[string]*Entity),
		expires: make(map[string]int64),
		clock:   clock,
	}
}

// drop deletes key and stamps the removal
func (m *shard) drop(key string) {
	delete(m.data, key)
	delete(m.expires, key)
	m.removed = m.clock.Add(1)
}

// lookup returns the live entity for key, deleting it first if its deadline
// has passed. The shard must be locked
func (m *shard) lookup(key string, now int64) *Entity {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if exp, hasExp := m.expires[key]; hasExp && now > exp {
		m.drop(key)
		return nil
	}
	return e
}

func (m *shard) remove(key string) bool {
	if _, ok := m.data[key]; !ok {
		return false
	}
	m.drop(key)
	return true
}

// deleteExpired checks up to limit keys that carry a deadline and deletes the
// expired ones. Returns how many keys were checked and how many expired
func (m *shard) deleteExpired(limit int, now int64) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.expires) == 0 {
		return 0, 0
	}

	checked := 0
	expired := 0

	// go map iteration is randomized by design
	for key, expTime := range m.expires {
		checked++
		if now > expTime {
			m.drop(key)
			expired++
		}

		if checked >= limit {
			break
		}
	}

	return checked, expired
}
