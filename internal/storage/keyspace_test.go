package storage

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func newTestKeyspace(tb testing.TB) *Keyspace {
	tb.Helper()
	ks, err := NewKeyspace(16)
	if err != nil {
		tb.Fatalf("NewKeyspace: %v", err)
	}
	return ks
}

func TestNewKeyspace(t *testing.T) {
	tests := []struct {
		name        string
		shards      uint
		expectError bool
	}{
		{"Valid 1 shard", 1, false},
		{"Valid 2 shards", 2, false},
		{"Valid 64 shards", 64, false},
		{"Invalid 0 shards", 0, true},
		{"Invalid 3 shards (not power of 2)", 3, true},
		{"Invalid 63 shards (not power of 2)", 63, true},
		{"Invalid 128 shards (too many)", 128, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, err := NewKeyspace(tt.shards)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %d shards, got nil", tt.shards)
				}
				if ks != nil {
					t.Errorf("expected nil struct for error case, got %v", ks)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %d shards: %v", tt.shards, err)
			}
			if uint(len(ks.shards)) != tt.shards {
				t.Errorf("expected %d shards created, got %d", tt.shards, len(ks.shards))
			}
			if ks.shardMask != uint32(tt.shards-1) {
				t.Errorf("mask mismatch")
			}
		})
	}
}

func TestKeyspace_Distribution(t *testing.T) {
	ks := newTestKeyspace(t)
	keysPopulated := make(map[int]int)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		err := ks.Update(func(s *Scope) error {
			_, err := s.Set(key, []byte("val"), SetOptions{})
			return err
		}, key)
		if err != nil {
			t.Fatal(err)
		}

		shardIdx := ks.getShardIndex(key)
		if _, ok := ks.shards[shardIdx].data[key]; !ok {
			t.Errorf("Key %s hashed to shard %d but not found there", key, shardIdx)
		}
		keysPopulated[int(shardIdx)]++
	}

	if len(keysPopulated) < len(ks.shards) {
		t.Logf("Warning: Not all shards were used with 100 keys. Used: %d/%d.", len(keysPopulated), len(ks.shards))
	}
}

func TestScope_PanicsOutsideAcquiredShards(t *testing.T) {
	ks, _ := NewKeyspace(64) //nolint:errcheck

	var other string
	for i := 0; ; i++ {
		other = fmt.Sprintf("other-%d", i)
		if ks.getShardIndex(other) != ks.getShardIndex("key") {
			break
		}
	}

	s := ks.Acquire("key")
	defer s.Release()

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for key outside scope")
		}
	}()
	s.Exists(other)
}

func TestKeyspace_Concurrent(t *testing.T) {
	ks := newTestKeyspace(t)
	var wg sync.WaitGroup

	workers := 50
	ops := 20000

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

			for j := 0; j < ops; j++ {
				a := fmt.Sprintf("key-%d", r.Intn(100))
				b := fmt.Sprintf("key-%d", r.Intn(100))

				s := ks.Acquire(a, b)
				switch r.Intn(4) {
				case 0:
					s.Set(a, []byte(fmt.Sprintf("val-%d", j)), SetOptions{}) //nolint:errcheck
				case 1:
					s.Get(a) //nolint:errcheck
				case 2:
					s.Delete(a)
				case 3:
					s.Rename(a, b, false) //nolint:errcheck
				}
				s.Release()
			}
		}(i)
	}

	wg.Wait()
}

// Concurrent increments over overlapping key pairs must not lose updates
func TestKeyspace_MultiKeyAtomicity(t *testing.T) {
	ks := newTestKeyspace(t)
	var wg sync.WaitGroup

	const workers = 16
	const ops = 1000

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				a, b := "left", "right"
				if (id+j)%2 == 0 {
					a, b = b, a
				}
				ks.Update(func(s *Scope) error { //nolint:errcheck
					s.IncrBy(a, 1) //nolint:errcheck
					s.IncrBy(b, 1) //nolint:errcheck
					return nil
				}, a, b)
			}
		}(i)
	}
	wg.Wait()

	s := ks.Acquire("left", "right")
	defer s.Release()
	for _, key := range []string{"left", "right"} {
		v, _, _ := s.Get(key) //nolint:errcheck
		if string(v) != fmt.Sprint(workers*ops) {
			t.Errorf("%s = %s, want %d", key, v, workers*ops)
		}
	}
}

func TestKeyspace_DeleteExpired(t *testing.T) {
	ks := newTestKeyspace(t)

	s := ks.AcquireAll()
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		ttl := time.Hour
		if i%2 == 0 {
			ttl = time.Millisecond
		}
		s.Set(key, []byte("v"), SetOptions{TTL: ttl}) //nolint:errcheck
	}
	s.Set("eternal", []byte("v"), SetOptions{}) //nolint:errcheck
	s.Release()

	time.Sleep(5 * time.Millisecond)

	deleted := 0
	for round := 0; round < 100 && deleted < 50; round++ {
		_, n := ks.DeleteExpired(20)
		deleted += n
	}
	if deleted != 50 {
		t.Fatalf("deleted %d keys, want 50", deleted)
	}

	s = ks.AcquireAll()
	defer s.Release()
	if n := s.Len(); n != 51 {
		t.Errorf("Len() = %d, want 51", n)
	}
}

func TestKeyspace_DeleteExpiredRatio(t *testing.T) {
	ks := newTestKeyspace(t)

	s := ks.AcquireAll()
	s.Set("gone", []byte("v"), SetOptions{TTL: time.Millisecond}) //nolint:errcheck
	s.Set("alive", []byte("v"), SetOptions{TTL: time.Hour})       //nolint:errcheck
	for i := 0; i < 20; i++ {
		s.Set(fmt.Sprintf("plain-%d", i), []byte("v"), SetOptions{}) //nolint:errcheck
	}
	s.Release()

	time.Sleep(5 * time.Millisecond)

	// shards without deadlines are not counted as checked
	if ratio, n := ks.DeleteExpired(20); n != 1 || ratio != 0.5 {
		t.Errorf("DeleteExpired() = %v, %d, want 0.5, 1", ratio, n)
	}
	if ratio, n := ks.DeleteExpired(20); n != 0 || ratio != 0 {
		t.Errorf("DeleteExpired() = %v, %d, want 0, 0", ratio, n)
	}
}

func TestScope_Versions(t *testing.T) {
	ks := newTestKeyspace(t)
	s := ks.AcquireAll()
	defer s.Release()

	if v := s.Version("k"); v != 0 {
		t.Fatalf("absent key version = %d, want 0", v)
	}

	s.Set("k", []byte("a"), SetOptions{}) //nolint:errcheck
	v1 := s.Version("k")
	if v1 == 0 {
		t.Fatalf("version not assigned on create")
	}

	s.Append("k", []byte("b")) //nolint:errcheck
	v2 := s.Version("k")
	if v2 <= v1 {
		t.Errorf("version did not advance on append: %d -> %d", v1, v2)
	}

	s.Expire("k", s.Now().Add(time.Hour))
	v3 := s.Version("k")
	if v3 <= v2 {
		t.Errorf("version did not advance on expire: %d -> %d", v2, v3)
	}

	s.Delete("k")
	gone := s.Version("k")
	if gone <= v3 {
		t.Errorf("deleted key reports a stale version: %d -> %d", v3, gone)
	}

	s.Set("k", []byte("a"), SetOptions{}) //nolint:errcheck
	if v4 := s.Version("k"); v4 <= gone {
		t.Errorf("recreated key reuses an old version: %d -> %d", gone, v4)
	}

	// reads never bump the version
	before := s.Version("k")
	s.Get("k")        //nolint:errcheck
	s.LLen("missing") //nolint:errcheck
	if after := s.Version("k"); after != before {
		t.Errorf("read changed version: %d -> %d", before, after)
	}
}

func TestScope_ExpireZeroIsImmediate(t *testing.T) {
	ks := newTestKeyspace(t)
	s := ks.AcquireAll()
	defer s.Release()

	s.Set("k", []byte("v"), SetOptions{}) //nolint:errcheck
	if !s.Expire("k", s.Now()) {
		t.Fatalf("Expire on existing key returned false")
	}
	if s.Exists("k") {
		t.Errorf("key visible after expiring at now")
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Errorf("Get returned expired key")
	}
}

func TestScope_LazyExpiry(t *testing.T) {
	ks := newTestKeyspace(t)

	ks.Update(func(s *Scope) error { //nolint:errcheck
		_, err := s.Set("k", []byte("v"), SetOptions{TTL: time.Millisecond})
		return err
	}, "k")

	time.Sleep(3 * time.Millisecond)

	s := ks.Acquire("k")
	defer s.Release()
	if s.Exists("k") {
		t.Fatalf("expired key still visible")
	}
	if _, ok := ks.shards[ks.getShardIndex("k")].data["k"]; ok {
		t.Errorf("lazy expiry did not reclaim the key")
	}
}

func TestScope_ExpiryAndPersist(t *testing.T) {
	ks := newTestKeyspace(t)
	s := ks.AcquireAll()
	defer s.Release()

	if _, st := s.Expiry("nope"); st != ExpNotFound {
		t.Errorf("status for missing key = %d", st)
	}

	s.Set("k", []byte("v"), SetOptions{}) //nolint:errcheck
	if _, st := s.Expiry("k"); st != ExpNoTimeout {
		t.Errorf("status without ttl = %d", st)
	}
	if s.Persist("k") {
		t.Errorf("Persist without ttl returned true")
	}

	s.Expire("k", s.Now().Add(10*time.Second))
	ttl, st := s.Expiry("k")
	if st != ExpActive || ttl <= 9*time.Second || ttl > 10*time.Second {
		t.Errorf("Expiry = %v, %d", ttl, st)
	}

	if !s.Persist("k") {
		t.Errorf("Persist with ttl returned false")
	}
	if _, st := s.Expiry("k"); st != ExpNoTimeout {
		t.Errorf("status after persist = %d", st)
	}
}

func TestScope_RenameKeepsTTL(t *testing.T) {
	ks := newTestKeyspace(t)
	s := ks.AcquireAll()
	defer s.Release()

	if _, err := s.Rename("a", "b", false); err != ErrNoSuchKey {
		t.Errorf("Rename missing err = %v", err)
	}

	s.Set("a", []byte("1"), SetOptions{TTL: time.Minute}) //nolint:errcheck
	s.Set("c", []byte("3"), SetOptions{})                 //nolint:errcheck

	if ok, _ := s.Rename("a", "c", true); ok {
		t.Errorf("RENAMENX overwrote existing key")
	}
	if ok, _ := s.Rename("a", "b", false); !ok {
		t.Fatalf("Rename failed")
	}
	if s.Exists("a") {
		t.Errorf("source still exists")
	}
	if _, st := s.Expiry("b"); st != ExpActive {
		t.Errorf("ttl lost on rename")
	}
}

func TestScope_KeysAndFlush(t *testing.T) {
	ks := newTestKeyspace(t)
	s := ks.AcquireAll()
	defer s.Release()

	for _, k := range []string{"user:1", "user:2", "order:1"} {
		s.Set(k, []byte("v"), SetOptions{}) //nolint:errcheck
	}

	got := s.Keys("user:*")
	if len(got) != 2 || got[0] != "user:1" || got[1] != "user:2" {
		t.Errorf("Keys = %v", got)
	}
	if _, ok := s.RandomKey(); !ok {
		t.Errorf("RandomKey found nothing")
	}

	s.Flush()
	if n := s.Len(); n != 0 {
		t.Errorf("Len after flush = %d", n)
	}
	if _, ok := s.RandomKey(); ok {
		t.Errorf("RandomKey on empty keyspace")
	}
}

func TestKeyspace_OnListPush(t *testing.T) {
	ks := newTestKeyspace(t)

	var got []string
	ks.OnListPush(func(keys []string) { got = append(got, keys...) })

	s := ks.AcquireAll()
	s.Push("q", false, false, []byte("a"))   //nolint:errcheck
	s.Push("q", true, false, []byte("b"))    //nolint:errcheck
	s.Push("x", false, true, []byte("skip")) //nolint:errcheck
	if len(got) != 0 {
		t.Fatalf("hook ran before release")
	}
	s.Release()

	if len(got) != 1 || got[0] != "q" {
		t.Errorf("hook keys = %v, want [q]", got)
	}
}

func TestKeyspace_OnListPush_Rename(t *testing.T) {
	ks := newTestKeyspace(t)

	var got []string
	ks.OnListPush(func(keys []string) { got = append(got, keys...) })

	s := ks.AcquireAll()
	s.Set("str", []byte("v"), SetOptions{}) //nolint:errcheck
	s.Rename("str", "other", false)         //nolint:errcheck
	s.TakePushed()
	s.Push("src", false, false, []byte("a")) //nolint:errcheck
	s.TakePushed()
	s.Rename("src", "queue", false) //nolint:errcheck
	s.Release()

	if len(got) != 1 || got[0] != "queue" {
		t.Errorf("hook keys = %v, want [queue]", got)
	}
}

func FuzzKeyspace(f *testing.F) {
	f.Add("key1", []byte("val1"))
	f.Add("special", []byte("!@#$%^&*()"))

	ks, _ := NewKeyspace(8) //nolint:errcheck

	f.Fuzz(func(t *testing.T, key string, val []byte) {
		s := ks.Acquire(key)
		defer s.Release()

		s.Set(key, val, SetOptions{}) //nolint:errcheck

		v, ok, err := s.Get(key)
		if err != nil || !ok || string(v) != string(val) {
			t.Errorf("Get failed after Set: key=%q, val=%q", key, val)
		}
	})
}

func BenchmarkKeyspace(b *testing.B) {
	for _, shards := range []uint{1, 16, 64} {
		ks, _ := NewKeyspace(shards) //nolint:errcheck

		b.Run(fmt.Sprintf("Shards_%d/Mixed90-10", shards), func(b *testing.B) {
			keyCount := 1000
			for i := 0; i < keyCount; i++ {
				key := fmt.Sprintf("key%d", i)
				s := ks.Acquire(key)
				s.Set(key, []byte("val"), SetOptions{}) //nolint:errcheck
				s.Release()
			}
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					key := fmt.Sprintf("key%d", i%keyCount)
					s := ks.Acquire(key)
					if i%10 == 0 {
						s.Set(key, []byte("new_val"), SetOptions{}) //nolint:errcheck
					} else {
						s.Get(key) //nolint:errcheck
					}
					s.Release()
					i++
				}
			})
		})
	}
}
