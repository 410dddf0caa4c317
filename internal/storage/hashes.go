package storage

import (
	"math"
	"sort"
	"strconv"
)

// FieldValue is one hash field with its value
type FieldValue struct {
	Field string
	Value []byte
}

func newHash() HashValue {
	return make(HashValue)
}

// HSet stores the pairs and returns how many fields were newly created
func (s *Scope) HSet(key string, pairs ...FieldValue) (int, error) {
	h, e, err := lookupOrCreate(s, key, newHash)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, p := range pairs {
		if _, ok := h[p.Field]; !ok {
			added++
		}
		h[p.Field] = cloneBytes(p.Value)
	}
	s.commit(key, e)
	return added, nil
}

// HSetNX sets field only when it is missing
func (s *Scope) HSetNX(key, field string, value []byte) (bool, error) {
	h, e, err := lookupOrCreate(s, key, newHash)
	if err != nil {
		return false, err
	}
	if _, ok := h[field]; ok {
		return false, nil
	}
	h[field] = cloneBytes(value)
	s.commit(key, e)
	return true, nil
}

// HGet returns the value of field
func (s *Scope) HGet(key, field string) ([]byte, bool, error) {
	h, e, err := lookupAs[HashValue](s, key)
	if err != nil || e == nil {
		return nil, false, err
	}
	v, ok := h[field]
	return v, ok, nil
}

// HMGet returns the values of fields, nil for the missing ones
func (s *Scope) HMGet(key string, fields ...string) ([][]byte, error) {
	h, _, err := lookupAs[HashValue](s, key)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = h[f]
	}
	return out, nil
}

// HGetAll returns every pair ordered by field name
func (s *Scope) HGetAll(key string) ([]FieldValue, error) {
	h, _, err := lookupAs[HashValue](s, key)
	if err != nil {
		return nil, err
	}
	out := make([]FieldValue, 0, len(h))
	for f, v := range h {
		out = append(out, FieldValue{Field: f, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

// HDel removes fields and returns how many existed
func (s *Scope) HDel(key string, fields ...string) (int, error) {
	h, e, err := lookupAs[HashValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	n := 0
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			n++
		}
	}
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// HExists reports whether field is present
func (s *Scope) HExists(key, field string) (bool, error) {
	_, ok, err := s.HGet(key, field)
	return ok, err
}

// HLen returns the number of fields
func (s *Scope) HLen(key string) (int, error) {
	h, _, err := lookupAs[HashValue](s, key)
	return len(h), err
}

// HKeys returns field names in order
func (s *Scope) HKeys(key string) ([]string, error) {
	pairs, err := s.HGetAll(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Field
	}
	return out, nil
}

// HVals returns values ordered by their field names
func (s *Scope) HVals(key string) ([][]byte, error) {
	pairs, err := s.HGetAll(key)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(pairs))
	for i, p := range pairs {
		out[i] = p.Value
	}
	return out, nil
}

// HIncrBy adds delta to the integer in field
func (s *Scope) HIncrBy(key, field string, delta int64) (int64, error) {
	h, e, err := lookupOrCreate(s, key, newHash)
	if err != nil {
		return 0, err
	}

	var cur int64
	if raw, ok := h[field]; ok {
		cur, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}

	cur += delta
	h[field] = strconv.AppendInt(nil, cur, 10)
	s.commit(key, e)
	return cur, nil
}

// HIncrByFloat adds delta to the float in field
func (s *Scope) HIncrByFloat(key, field string, delta float64) (float64, error) {
	h, e, err := lookupOrCreate(s, key, newHash)
	if err != nil {
		return 0, err
	}

	var cur float64
	if raw, ok := h[field]; ok {
		cur, err = strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsNaN(cur) || math.IsInf(cur, 0) {
			return 0, ErrNotFloat
		}
	}

	cur += delta
	if math.IsNaN(cur) || math.IsInf(cur, 0) {
		return 0, ErrNaN
	}
	h[field] = []byte(strconv.FormatFloat(cur, 'f', -1, 64))
	s.commit(key, e)
	return cur, nil
}
