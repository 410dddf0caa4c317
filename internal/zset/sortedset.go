// Package zset implements the rank-ordered sorted set used by the keyspace.
//
// A SortedSet keeps two indexes: a dictionary from member to score for O(1)
// score lookups, and a skip list ordered by (score, member) with per-level
// spans, which makes rank and range queries O(log n).
package zset

import (
	"errors"
	"iter"
	"math"
)

var ErrNaN = errors.New("resulting score is not a number (NaN)")

// SortedSet is not safe for concurrent use; the keyspace serializes access
type SortedSet struct {
	dict map[string]float64
	sl   *skiplist
}

// New creates an empty sorted set
func New() *SortedSet {
	return &SortedSet{
		dict: make(map[string]float64),
		sl:   newSkiplist(),
	}
}

// Len returns the cardinality
func (z *SortedSet) Len() int {
	return len(z.dict)
}

// Score returns the score of member
func (z *SortedSet) Score(member string) (float64, bool) {
	s, ok := z.dict[member]
	return s, ok
}

// Lookup is Score under the Source interface
func (z *SortedSet) Lookup(member string) (float64, bool) {
	return z.Score(member)
}

// Add inserts member or moves it to a new score. Returns true if member is new
func (z *SortedSet) Add(member string, score float64) bool {
	old, exists := z.dict[member]
	if exists {
		if old != score {
			z.sl.remove(member, old)
			z.sl.insert(member, score)
			z.dict[member] = score
		}
		return false
	}
	z.dict[member] = score
	z.sl.insert(member, score)
	return true
}

// IncrBy adds delta to the score of member, creating it with score delta if absent
func (z *SortedSet) IncrBy(member string, delta float64) (float64, error) {
	score := z.dict[member] + delta
	if math.IsNaN(score) {
		return 0, ErrNaN
	}
	z.Add(member, score)
	return score, nil
}

// Remove deletes members and returns how many existed
func (z *SortedSet) Remove(members ...string) int {
	removed := 0
	for _, m := range members {
		score, ok := z.dict[m]
		if !ok {
			continue
		}
		z.sl.remove(m, score)
		delete(z.dict, m)
		removed++
	}
	return removed
}

// Rank returns the 0-based position of member, ascending unless reverse
func (z *SortedSet) Rank(member string, reverse bool) (int64, bool) {
	score, ok := z.dict[member]
	if !ok {
		return 0, false
	}
	r := z.sl.rank(member, score)
	if reverse {
		return z.sl.length - r, true
	}
	return r - 1, true
}

// normalizeRank resolves negative indexes and clamps to the set bounds.
// ok is false when the range selects nothing
func (z *SortedSet) normalizeRank(start, stop int64) (int64, int64, bool) {
	n := z.sl.length
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

// RangeByRank returns the elements between start and stop inclusive.
// Negative indexes count from the end
func (z *SortedSet) RangeByRank(start, stop int64, reverse bool) []Element {
	start, stop, ok := z.normalizeRank(start, stop)
	if !ok {
		return []Element{}
	}

	out := make([]Element, 0, stop-start+1)
	var x *node
	if reverse {
		x = z.sl.byRank(z.sl.length - start)
	} else {
		x = z.sl.byRank(start + 1)
	}
	for i := start; i <= stop && x != nil; i++ {
		out = append(out, x.Element)
		if reverse {
			x = x.backward
		} else {
			x = x.levels[0].forward
		}
	}
	return out
}

// RangeByScore returns elements with score in r, skipping offset and
// returning at most count elements (count < 0 means no limit)
func (z *SortedSet) RangeByScore(r ScoreRange, offset, count int64, reverse bool) []Element {
	out := []Element{}
	if offset < 0 || count == 0 {
		return out
	}

	var x *node
	if reverse {
		x = z.sl.lastInRange(r)
	} else {
		x = z.sl.firstInRange(r)
	}

	for x != nil && offset > 0 {
		if reverse {
			x = x.backward
		} else {
			x = x.levels[0].forward
		}
		offset--
	}

	for x != nil && r.Contains(x.Score) {
		out = append(out, x.Element)
		if count > 0 && int64(len(out)) >= count {
			break
		}
		if reverse {
			x = x.backward
		} else {
			x = x.levels[0].forward
		}
	}
	return out
}

// Count returns the number of elements with score in r
func (z *SortedSet) Count(r ScoreRange) int64 {
	first := z.sl.firstInRange(r)
	if first == nil {
		return 0
	}
	last := z.sl.lastInRange(r)
	return z.sl.rank(last.Member, last.Score) - z.sl.rank(first.Member, first.Score) + 1
}

// RemoveRangeByRank deletes elements between start and stop inclusive
func (z *SortedSet) RemoveRangeByRank(start, stop int64) int64 {
	elems := z.RangeByRank(start, stop, false)
	for _, e := range elems {
		z.Remove(e.Member)
	}
	return int64(len(elems))
}

// RemoveRangeByScore deletes elements with score in r
func (z *SortedSet) RemoveRangeByScore(r ScoreRange) int64 {
	elems := z.RangeByScore(r, 0, -1, false)
	for _, e := range elems {
		z.Remove(e.Member)
	}
	return int64(len(elems))
}

// PopMin removes and returns up to count lowest elements
func (z *SortedSet) PopMin(count int64) []Element {
	if count <= 0 {
		return []Element{}
	}
	elems := z.RangeByRank(0, count-1, false)
	for _, e := range elems {
		z.Remove(e.Member)
	}
	return elems
}

// PopMax removes and returns up to count highest elements, highest first
func (z *SortedSet) PopMax(count int64) []Element {
	if count <= 0 {
		return []Element{}
	}
	elems := z.RangeByRank(0, count-1, true)
	for _, e := range elems {
		z.Remove(e.Member)
	}
	return elems
}

// All iterates members in ascending order
func (z *SortedSet) All() iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		for x := z.sl.header.levels[0].forward; x != nil; x = x.levels[0].forward {
			if !yield(x.Member, x.Score) {
				return
			}
		}
	}
}

// Clone returns a deep copy
func (z *SortedSet) Clone() *SortedSet {
	c := New()
	for m, s := range z.All() {
		c.Add(m, s)
	}
	return c
}
