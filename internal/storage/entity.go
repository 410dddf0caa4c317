package storage

import (
	"iter"
	"sort"

	"github.com/eternalApril/umbra/internal/zset"
)

type DataType byte

const (
	TypeNone DataType = iota
	TypeString
	TypeList
	TypeSet
	TypeHash
	TypeZSet
)

// String returns the name reported by the TYPE command
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeZSet:
		return "zset"
	default:
		return "none"
	}
}

// Value is the closed set of shapes a key can hold. Only the types in this
// file implement it.
type Value interface {
	Type() DataType
	empty() bool
}

// Entity generic container for value
type Entity struct {
	Value   Value
	Version uint64 // keyspace clock at the last modification
}

// StringValue is an opaque byte sequence
type StringValue struct {
	Data []byte
}

func (*StringValue) Type() DataType { return TypeString }
func (*StringValue) empty() bool    { return false }

// ListValue is an ordered sequence of byte strings
type ListValue struct {
	deque
}

func (*ListValue) Type() DataType { return TypeList }
func (l *ListValue) empty() bool  { return l.Len() == 0 }

// HashValue maps field names to values
type HashValue map[string][]byte

func (HashValue) Type() DataType { return TypeHash }
func (h HashValue) empty() bool  { return len(h) == 0 }

// SetValue is a collection of unique members
type SetValue map[string]struct{}

func (SetValue) Type() DataType { return TypeSet }
func (s SetValue) empty() bool  { return len(s) == 0 }

// Len, All and Lookup let a set feed sorted set store operations with score 1
func (s SetValue) Len() int { return len(s) }

func (s SetValue) All() iter.Seq2[string, float64] {
	return func(yield func(string, float64) bool) {
		for m := range s {
			if !yield(m, 1) {
				return
			}
		}
	}
}

func (s SetValue) Lookup(member string) (float64, bool) {
	_, ok := s[member]
	return 1, ok
}

func (s SetValue) sorted() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ZSetValue wraps the rank-ordered index
type ZSetValue struct {
	*zset.SortedSet
}

func (*ZSetValue) Type() DataType { return TypeZSet }
func (z *ZSetValue) empty() bool  { return z.Len() == 0 }

// cloneValue deep-copies v so that a copy can live under another key
func cloneValue(v Value) Value {
	switch t := v.(type) {
	case *StringValue:
		return &StringValue{Data: cloneBytes(t.Data)}
	case *ListValue:
		l := &ListValue{}
		for _, it := range t.items() {
			l.pushBack(cloneBytes(it))
		}
		return l
	case HashValue:
		h := make(HashValue, len(t))
		for f, val := range t {
			h[f] = cloneBytes(val)
		}
		return h
	case SetValue:
		s := make(SetValue, len(t))
		for m := range t {
			s[m] = struct{}{}
		}
		return s
	case *ZSetValue:
		return &ZSetValue{SortedSet: t.Clone()}
	default:
		panic("storage: unknown value type")
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
