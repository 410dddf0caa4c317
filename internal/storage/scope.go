package storage

import (
	"math/bits"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/eternalApril/umbra/internal/glob"
)

// Scope is a locked region of the keyspace. It is not safe for concurrent use
// and must be released exactly once
type Scope struct {
	ks     *Keyspace
	mask   uint64
	now    int64
	pushed []string
}

// Release unlocks the shards and reports list pushes to the keyspace hook
func (s *Scope) Release() {
	mask := s.mask
	s.mask = 0
	for mask != 0 {
		idx := 63 - bits.LeadingZeros64(mask)
		s.ks.shards[idx].mu.Unlock()
		mask &^= 1 << idx
	}

	if len(s.pushed) > 0 && s.ks.onListPush != nil {
		s.ks.onListPush(dedupe(s.pushed))
	}
	s.pushed = nil
}

// Now returns the clock reading taken when the scope was acquired
func (s *Scope) Now() time.Time {
	return time.Unix(0, s.now)
}

func (s *Scope) shardFor(key string) *shard {
	idx := s.ks.getShardIndex(key)
	if s.mask&(1<<idx) == 0 {
		panic("storage: key " + key + " is outside the acquired scope")
	}
	return s.ks.shards[idx]
}

func (s *Scope) get(key string) *Entity {
	return s.shardFor(key).lookup(key, s.now)
}

// lookupAs returns the value at key asserted to T. A missing key yields the
// zero T and a nil entity
func lookupAs[T Value](s *Scope, key string) (T, *Entity, error) {
	var zero T
	e := s.get(key)
	if e == nil {
		return zero, nil, nil
	}
	v, ok := e.Value.(T)
	if !ok {
		return zero, nil, ErrWrongType
	}
	return v, e, nil
}

// lookupOrCreate is lookupAs that builds a detached entity when key is absent.
// The entity only becomes visible through commit
func lookupOrCreate[T Value](s *Scope, key string, mk func() T) (T, *Entity, error) {
	v, e, err := lookupAs[T](s, key)
	if err != nil || e != nil {
		return v, e, err
	}
	v = mk()
	return v, &Entity{Value: v}, nil
}

// commit publishes a mutation of e under key. Empty containers are deleted,
// everything else gets a fresh version
func (s *Scope) commit(key string, e *Entity) {
	sh := s.shardFor(key)
	if e.Value.empty() {
		sh.remove(key)
		return
	}
	e.Version = s.ks.tick()
	sh.data[key] = e
}

// replace stores v under key as a brand-new entity, dropping any TTL
func (s *Scope) replace(key string, v Value) {
	sh := s.shardFor(key)
	if v.empty() {
		sh.remove(key)
		return
	}
	delete(sh.expires, key)
	sh.data[key] = &Entity{Value: v, Version: s.ks.tick()}
}

func (s *Scope) notifyPush(key string) {
	s.pushed = append(s.pushed, key)
}

// TakePushed returns the keys that gained list elements so far and clears
// them, so Release will not report them to the keyspace hook
func (s *Scope) TakePushed() []string {
	keys := dedupe(s.pushed)
	s.pushed = nil
	return keys
}

// Version returns the modification version of key. An absent key reports the
// latest removal in its shard, so a key created and deleted again between two
// reads never looks untouched. A fresh keyspace reports 0 for every key
func (s *Scope) Version(key string) uint64 {
	sh := s.shardFor(key)
	if e := sh.lookup(key, s.now); e != nil {
		return e.Version
	}
	return sh.removed
}

// Exists reports whether key is present and not expired
func (s *Scope) Exists(key string) bool {
	return s.get(key) != nil
}

// Type returns the data type at key
func (s *Scope) Type(key string) DataType {
	if e := s.get(key); e != nil {
		return e.Value.Type()
	}
	return TypeNone
}

// Delete removes keys and returns how many existed
func (s *Scope) Delete(keys ...string) int {
	n := 0
	for _, key := range keys {
		if s.get(key) == nil {
			continue
		}
		if s.shardFor(key).remove(key) {
			n++
		}
	}
	return n
}

// Expire sets an absolute deadline on key. A deadline not in the future
// deletes the key immediately. Returns false if key does not exist
func (s *Scope) Expire(key string, deadline time.Time) bool {
	e := s.get(key)
	if e == nil {
		return false
	}

	sh := s.shardFor(key)
	at := deadline.UnixNano()
	if at <= s.now {
		sh.remove(key)
		return true
	}

	sh.expires[key] = at
	e.Version = s.ks.tick()
	return true
}

// Expiry returns the remaining lifetime and status as ExpiryStatus
func (s *Scope) Expiry(key string) (time.Duration, ExpiryStatus) {
	if s.get(key) == nil {
		return 0, ExpNotFound
	}

	exp, hasExp := s.shardFor(key).expires[key]
	if !hasExp {
		return 0, ExpNoTimeout
	}

	return time.Duration(exp - s.now), ExpActive
}

// Persist removes the expiration date of the key, making it eternal.
// Returns false if the key was not found or had no TTL
func (s *Scope) Persist(key string) bool {
	e := s.get(key)
	if e == nil {
		return false
	}

	sh := s.shardFor(key)
	if _, hasExp := sh.expires[key]; !hasExp {
		return false
	}

	delete(sh.expires, key)
	e.Version = s.ks.tick()
	return true
}

// Rename moves src to dst together with its TTL. With nx it refuses to
// overwrite an existing dst and returns false
func (s *Scope) Rename(src, dst string, nx bool) (bool, error) {
	e := s.get(src)
	if e == nil {
		return false, ErrNoSuchKey
	}
	if src == dst {
		return !nx, nil
	}
	if nx && s.get(dst) != nil {
		return false, nil
	}

	srcShard := s.shardFor(src)
	exp, hasExp := srcShard.expires[src]
	srcShard.remove(src)

	dstShard := s.shardFor(dst)
	dstShard.data[dst] = &Entity{Value: e.Value, Version: s.ks.tick()}
	if hasExp {
		dstShard.expires[dst] = exp
	} else {
		delete(dstShard.expires, dst)
	}
	if _, ok := e.Value.(*ListValue); ok {
		s.notifyPush(dst)
	}
	return true, nil
}

// Keys returns the live keys matching pattern, sorted. Requires AcquireAll
func (s *Scope) Keys(pattern string) []string {
	out := []string{}
	for i, sh := range s.ks.shards {
		if s.mask&(1<<i) == 0 {
			panic("storage: Keys requires every shard")
		}
		for key := range sh.data {
			if sh.lookup(key, s.now) == nil {
				continue
			}
			if pattern == "*" || glob.Match(pattern, key) {
				out = append(out, key)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of keys, including expired keys not yet reclaimed.
// Requires AcquireAll
func (s *Scope) Len() int {
	n := 0
	for _, sh := range s.ks.shards {
		n += len(sh.data)
	}
	return n
}

// RandomKey returns a random live key
func (s *Scope) RandomKey() (string, bool) {
	order := rand.Perm(len(s.ks.shards))
	for _, i := range order {
		if s.mask&(1<<i) == 0 {
			continue
		}
		sh := s.ks.shards[i]
		for key := range sh.data {
			if sh.lookup(key, s.now) != nil {
				return key, true
			}
		}
	}
	return "", false
}

// Flush drops every key. Requires AcquireAll
func (s *Scope) Flush() {
	for i, sh := range s.ks.shards {
		if s.mask&(1<<i) == 0 {
			panic("storage: Flush requires every shard")
		}
		if len(sh.data) > 0 {
			sh.removed = s.ks.tick()
		}
		sh.data = make(map[string]*Entity)
		sh.expires = make(map[string]int64)
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
