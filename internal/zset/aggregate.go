package zset

import (
	"errors"
	"iter"
	"math"
	"sort"
	"strings"
)

var ErrUnknownAggregate = errors.New("unknown aggregate")

// Aggregate decides the resulting score of a member present in several inputs
type Aggregate int

const (
	AggregateSum Aggregate = iota
	AggregateMin
	AggregateMax
)

// ParseAggregate parses SUM, MIN or MAX
func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToUpper(s) {
	case "SUM":
		return AggregateSum, nil
	case "MIN":
		return AggregateMin, nil
	case "MAX":
		return AggregateMax, nil
	}
	return 0, ErrUnknownAggregate
}

func (a Aggregate) apply(acc, v float64) float64 {
	switch a {
	case AggregateMin:
		return math.Min(acc, v)
	case AggregateMax:
		return math.Max(acc, v)
	default:
		// +inf + -inf
		if r := acc + v; !math.IsNaN(r) {
			return r
		}
		return 0
	}
}

// Source is anything that can feed a store operation: sorted sets, and plain
// sets exposed with score 1
type Source interface {
	Len() int
	All() iter.Seq2[string, float64]
	Lookup(member string) (float64, bool)
}

// Weighted pairs a source with its multiplier. A nil Source is an empty input
type Weighted struct {
	Source Source
	Weight float64
}

func weigh(score, weight float64) float64 {
	r := score * weight
	// 0 * inf
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func sourceLen(s Source) int {
	if s == nil {
		return 0
	}
	return s.Len()
}

// Union merges all inputs
func Union(inputs []Weighted, agg Aggregate) *SortedSet {
	out := New()
	for _, in := range inputs {
		if in.Source == nil {
			continue
		}
		for m, s := range in.Source.All() {
			v := weigh(s, in.Weight)
			if cur, ok := out.dict[m]; ok {
				out.Add(m, agg.apply(cur, v))
			} else {
				out.Add(m, v)
			}
		}
	}
	return out
}

// Inter keeps members present in every input
func Inter(inputs []Weighted, agg Aggregate) *SortedSet {
	out := New()
	if len(inputs) == 0 {
		return out
	}

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sourceLen(inputs[order[a]].Source) < sourceLen(inputs[order[b]].Source)
	})

	smallest := inputs[order[0]]
	if sourceLen(smallest.Source) == 0 {
		return out
	}

	for m, s := range smallest.Source.All() {
		acc := weigh(s, smallest.Weight)
		found := true
		for _, idx := range order[1:] {
			other := inputs[idx]
			os, ok := other.Source.Lookup(m)
			if !ok {
				found = false
				break
			}
			acc = agg.apply(acc, weigh(os, other.Weight))
		}
		if found {
			out.Add(m, acc)
		}
	}
	return out
}

// Diff keeps members of the first input absent from all the others, with their
// original scores
func Diff(inputs []Source) *SortedSet {
	out := New()
	if len(inputs) == 0 || sourceLen(inputs[0]) == 0 {
		return out
	}

	for m, s := range inputs[0].All() {
		excluded := false
		for _, other := range inputs[1:] {
			if other == nil {
				continue
			}
			if _, ok := other.Lookup(m); ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out.Add(m, s)
		}
	}
	return out
}
