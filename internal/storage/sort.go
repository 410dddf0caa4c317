package storage

import (
	"bytes"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrSortWeight is returned when a weight or element is not numeric and ALPHA is off
var ErrSortWeight = errors.New("one or more scores can't be converted into double")

// SortOptions are the SORT modifiers. By and Get patterns use * for the element
// and an optional ->field suffix to read a hash field
type SortOptions struct {
	By     string
	Offset int64
	Count  int64 // negative means no limit
	Get    []string
	Desc   bool
	Alpha  bool
}

type sortItem struct {
	elem   []byte
	weight []byte
	score  float64
}

// sortElements returns the members of the list, set or sorted set at key
func (s *Scope) sortElements(key string) ([][]byte, error) {
	e := s.get(key)
	if e == nil {
		return nil, nil
	}
	switch v := e.Value.(type) {
	case *ListValue:
		return v.items(), nil
	case SetValue:
		out := make([][]byte, 0, len(v))
		for _, m := range v.sorted() {
			out = append(out, []byte(m))
		}
		return out, nil
	case *ZSetValue:
		out := make([][]byte, 0, v.Len())
		for m := range v.All() {
			out = append(out, []byte(m))
		}
		return out, nil
	default:
		return nil, ErrWrongType
	}
}

// lookupPattern resolves a BY/GET pattern for elem. A pattern without * or a
// missing key yields nil
func (s *Scope) lookupPattern(pattern string, elem []byte) []byte {
	if pattern == "#" {
		return elem
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return nil
	}

	keyPattern, field := pattern, ""
	if arrow := strings.Index(pattern, "->"); arrow > star && arrow+2 < len(pattern) {
		keyPattern, field = pattern[:arrow], pattern[arrow+2:]
	}
	key := keyPattern[:star] + string(elem) + keyPattern[star+1:]

	e := s.get(key)
	if e == nil {
		return nil
	}
	switch v := e.Value.(type) {
	case *StringValue:
		if field != "" {
			return nil
		}
		return v.Data
	case HashValue:
		if field == "" {
			return nil
		}
		return v[field]
	default:
		return nil
	}
}

// Sort returns the sorted elements at key, or the GET projections of them.
// Patterns read arbitrary keys, so the scope must cover every shard
func (s *Scope) Sort(key string, opts SortOptions) ([][]byte, error) {
	elems, err := s.sortElements(key)
	if err != nil {
		return nil, err
	}

	dontSort := opts.By != "" && !strings.Contains(opts.By, "*")
	items := make([]sortItem, len(elems))
	for i, el := range elems {
		items[i].elem = el
		if dontSort {
			continue
		}

		items[i].weight = el
		if opts.By != "" {
			items[i].weight = s.lookupPattern(opts.By, el)
		}
		if opts.Alpha || items[i].weight == nil {
			continue
		}
		score, err := strconv.ParseFloat(string(items[i].weight), 64)
		if err != nil {
			return nil, ErrSortWeight
		}
		items[i].score = score
	}

	if !dontSort {
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			var cmp int
			if opts.Alpha {
				cmp = bytes.Compare(a.weight, b.weight)
			} else if a.score < b.score {
				cmp = -1
			} else if a.score > b.score {
				cmp = 1
			}
			if cmp == 0 {
				cmp = bytes.Compare(a.elem, b.elem)
			}
			if opts.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	start := min(max(opts.Offset, 0), int64(len(items)))
	end := int64(len(items))
	if opts.Count >= 0 {
		end = min(start+opts.Count, end)
	}
	items = items[start:end]

	if len(opts.Get) == 0 {
		out := make([][]byte, len(items))
		for i, it := range items {
			out[i] = it.elem
		}
		return out, nil
	}

	out := make([][]byte, 0, len(items)*len(opts.Get))
	for _, it := range items {
		for _, pattern := range opts.Get {
			out = append(out, s.lookupPattern(pattern, it.elem))
		}
	}
	return out, nil
}

// SortStore runs Sort and writes the result to dst as a list, missing GET
// values stored as empty strings. Returns the stored length
func (s *Scope) SortStore(key, dst string, opts SortOptions) (int, error) {
	out, err := s.Sort(key, opts)
	if err != nil {
		return 0, err
	}

	l := newList()
	for _, v := range out {
		l.pushBack(cloneBytes(v))
	}
	s.replace(dst, l)
	if l.Len() > 0 {
		s.notifyPush(dst)
	}
	return l.Len(), nil
}
