package storage

import (
	"errors"
	"math"

	"github.com/eternalApril/umbra/internal/zset"
)

// ErrZAddIncompatible is returned for ZADD flag combinations that make no sense
var ErrZAddIncompatible = errors.New("GT, LT, and/or NX options at the same time are not compatible")

// ZAddOptions mirrors the ZADD flags
type ZAddOptions struct {
	NX   bool // only add new members
	XX   bool // only update existing members
	GT   bool // only update when the new score is greater
	LT   bool // only update when the new score is less
	CH   bool // count changed members, not only added ones
	Incr bool // treat the single score as an increment
}

// ZAddResult is the outcome of ZAdd. With Incr, Score holds the new score and
// Applied is false when a condition blocked the update
type ZAddResult struct {
	Count   int
	Score   float64
	Applied bool
}

func newZSet() *ZSetValue {
	return &ZSetValue{SortedSet: zset.New()}
}

// ZAdd inserts or updates members under the given conditions
func (s *Scope) ZAdd(key string, opts ZAddOptions, members ...zset.Element) (ZAddResult, error) {
	var res ZAddResult
	if opts.NX && (opts.XX || opts.GT || opts.LT) || opts.GT && opts.LT {
		return res, ErrZAddIncompatible
	}

	z, e, err := lookupOrCreate(s, key, newZSet)
	if err != nil {
		return res, err
	}

	changed := false
	for _, m := range members {
		if math.IsNaN(m.Score) {
			return res, zset.ErrNaN
		}

		cur, exists := z.Score(m.Member)
		if exists && opts.NX || !exists && opts.XX {
			continue
		}

		score := m.Score
		if opts.Incr {
			score = cur + m.Score
			if math.IsNaN(score) {
				return res, zset.ErrNaN
			}
		}
		if exists && (opts.GT && score <= cur || opts.LT && score >= cur) {
			continue
		}

		res.Score, res.Applied = score, true
		if !exists {
			z.Add(m.Member, score)
			res.Count++
			changed = true
		} else if score != cur {
			z.Add(m.Member, score)
			if opts.CH {
				res.Count++
			}
			changed = true
		}
	}

	if changed {
		s.commit(key, e)
	}
	return res, nil
}

// ZRem removes members and returns how many existed
func (s *Scope) ZRem(key string, members ...string) (int, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	n := z.Remove(members...)
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// ZScore returns the score of member
func (s *Scope) ZScore(key, member string) (float64, bool, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, false, err
	}
	score, ok := z.Score(member)
	return score, ok, nil
}

// ZIncrBy adds delta to the score of member
func (s *Scope) ZIncrBy(key, member string, delta float64) (float64, error) {
	z, e, err := lookupOrCreate(s, key, newZSet)
	if err != nil {
		return 0, err
	}
	score, err := z.IncrBy(member, delta)
	if err != nil {
		return 0, err
	}
	s.commit(key, e)
	return score, nil
}

// ZCard returns the number of members
func (s *Scope) ZCard(key string) (int, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	return z.Len(), nil
}

// ZCount returns the number of members with a score inside r
func (s *Scope) ZCount(key string, r zset.ScoreRange) (int64, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	return z.Count(r), nil
}

// ZRank returns the 0-based rank of member
func (s *Scope) ZRank(key, member string, reverse bool) (int64, bool, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, false, err
	}
	rank, ok := z.Rank(member, reverse)
	return rank, ok, nil
}

// ZRangeByRank returns members between ranks start and stop inclusive
func (s *Scope) ZRangeByRank(key string, start, stop int64, reverse bool) ([]zset.Element, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return []zset.Element{}, err
	}
	return z.RangeByRank(start, stop, reverse), nil
}

// ZRangeByScore returns members with a score in r. A negative count means no limit
func (s *Scope) ZRangeByScore(key string, r zset.ScoreRange, offset, count int64, reverse bool) ([]zset.Element, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return []zset.Element{}, err
	}
	return z.RangeByScore(r, offset, count, reverse), nil
}

// ZRemRangeByRank removes members between ranks start and stop inclusive
func (s *Scope) ZRemRangeByRank(key string, start, stop int64) (int64, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	n := z.RemoveRangeByRank(start, stop)
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// ZRemRangeByScore removes members with a score in r
func (s *Scope) ZRemRangeByScore(key string, r zset.ScoreRange) (int64, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	n := z.RemoveRangeByScore(r)
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// ZPop removes up to count members with the lowest (or highest) scores
func (s *Scope) ZPop(key string, count int64, highest bool) ([]zset.Element, error) {
	z, e, err := lookupAs[*ZSetValue](s, key)
	if err != nil || e == nil {
		return []zset.Element{}, err
	}

	var out []zset.Element
	if highest {
		out = z.PopMax(count)
	} else {
		out = z.PopMin(count)
	}
	if len(out) > 0 {
		s.commit(key, e)
	}
	return out, nil
}

// zsource resolves key as a store input. Sets count with score 1; a missing
// key yields a nil Source
func (s *Scope) zsource(key string) (zset.Source, error) {
	e := s.get(key)
	if e == nil {
		return nil, nil
	}
	switch v := e.Value.(type) {
	case *ZSetValue:
		return v.SortedSet, nil
	case SetValue:
		return v, nil
	default:
		return nil, ErrWrongType
	}
}

// ZStoreOp selects the algebra of ZStore
type ZStoreOp int

const (
	ZUnion ZStoreOp = iota
	ZInter
	ZDiff
)

// ZStore combines the inputs at keys and writes the result to dst, replacing
// it. Weights may be nil for all ones. Returns the result cardinality
func (s *Scope) ZStore(op ZStoreOp, dst string, keys []string, weights []float64, agg zset.Aggregate) (int, error) {
	sources := make([]zset.Source, len(keys))
	for i, key := range keys {
		src, err := s.zsource(key)
		if err != nil {
			return 0, err
		}
		sources[i] = src
	}

	var out *zset.SortedSet
	if op == ZDiff {
		out = zset.Diff(sources)
	} else {
		inputs := make([]zset.Weighted, len(sources))
		for i, src := range sources {
			inputs[i] = zset.Weighted{Source: src, Weight: 1}
			if weights != nil {
				inputs[i].Weight = weights[i]
			}
		}
		if op == ZUnion {
			out = zset.Union(inputs, agg)
		} else {
			out = zset.Inter(inputs, agg)
		}
	}

	s.replace(dst, &ZSetValue{SortedSet: out})
	return out.Len(), nil
}
