package storage

import (
	"errors"
	"hash/fnv"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"
)

// Keyspace is a thread-safe typed key-value store,
// divided into segments (shards) to reduce contention for locking
type Keyspace struct {
	shards    []*shard
	shardMask uint32
	clock     atomic.Uint64

	onListPush func(keys []string)
}

// NewKeyspace creates a new instance of Keyspace.
// The requestedShards parameter must be a power of two for efficient allocation.
// The maximum allowed number of shards is 64.
func NewKeyspace(requestedShards uint) (*Keyspace, error) {
	if bits.OnesCount(requestedShards) != 1 {
		return nil, errors.New("requested shards must be a power of 2")
	}

	if requestedShards > 64 {
		return nil, errors.New("requested shards must be less or equal than 64")
	}

	k := &Keyspace{
		shards:    make([]*shard, requestedShards),
		shardMask: uint32(requestedShards - 1),
	}

	for i := range k.shards {
		k.shards[i] = newShard(&k.clock)
	}

	return k, nil
}

// OnListPush registers a callback invoked after a Scope that added elements to
// lists is released. It receives the affected keys, deduplicated
func (k *Keyspace) OnListPush(fn func(keys []string)) {
	k.onListPush = fn
}

// getShardIndex returns index of shard by key
func (k *Keyspace) getShardIndex(key string) uint32 {
	hash := fnv.New32a()
	hash.Write([]byte(key)) //nolint:errcheck

	return hash.Sum32() & k.shardMask
}

// Acquire locks the shards owning keys and returns a Scope limited to them
func (k *Keyspace) Acquire(keys ...string) *Scope {
	var mask uint64
	for _, key := range keys {
		mask |= 1 << k.getShardIndex(key)
	}
	return k.lock(mask)
}

// AcquireAll locks every shard
func (k *Keyspace) AcquireAll() *Scope {
	var mask uint64
	if len(k.shards) == 64 {
		mask = ^uint64(0)
	} else {
		mask = 1<<len(k.shards) - 1
	}
	return k.lock(mask)
}

// lock takes shard mutexes in ascending index order, so two scopes can never
// wait on each other
func (k *Keyspace) lock(mask uint64) *Scope {
	for m := mask; m != 0; m &= m - 1 {
		k.shards[bits.TrailingZeros64(m)].mu.Lock()
	}
	return &Scope{
		ks:   k,
		mask: mask,
		now:  time.Now().UnixNano(),
	}
}

// Update runs fn inside a Scope over keys
func (k *Keyspace) Update(fn func(s *Scope) error, keys ...string) error {
	s := k.Acquire(keys...)
	defer s.Release()
	return fn(s)
}

// DeleteExpired randomly selects a limit of keys from each shard and delete if his TTL has expired.
// Returns the expired share of all checked keys and the number of deleted keys
func (k *Keyspace) DeleteExpired(limit int) (float64, int) {
	var wg sync.WaitGroup
	var totalChecked, totalExpired int
	var mu sync.Mutex // protects totals

	wg.Add(len(k.shards))
	now := time.Now().UnixNano()

	for _, sh := range k.shards {
		go func(m *shard) {
			defer wg.Done()
			checked, expired := m.deleteExpired(limit, now)

			mu.Lock()
			totalChecked += checked
			totalExpired += expired
			mu.Unlock()
		}(sh)
	}

	wg.Wait()

	if totalChecked == 0 {
		return 0, 0
	}
	return float64(totalExpired) / float64(totalChecked), totalExpired
}

// tick returns a fresh version
func (k *Keyspace) tick() uint64 {
	return k.clock.Add(1)
}
