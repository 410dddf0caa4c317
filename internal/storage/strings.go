package storage

import (
	"math"
	"strconv"
)

const maxStringLength = 512 * 1024 * 1024

// Get returns the string value at key
func (s *Scope) Get(key string) ([]byte, bool, error) {
	v, e, err := lookupAs[*StringValue](s, key)
	if err != nil || e == nil {
		return nil, false, err
	}
	return v.Data, true, nil
}

// Set writes the value based on the options
func (s *Scope) Set(key string, value []byte, options SetOptions) (SetResult, error) {
	var res SetResult

	e := s.get(key)
	exists := e != nil

	if options.Get && exists {
		sv, ok := e.Value.(*StringValue)
		if !ok {
			return res, ErrWrongType
		}
		res.Old, res.HadOld = sv.Data, true
	}

	if options.NX && exists {
		return res, nil
	}

	if options.XX && !exists {
		return res, nil
	}

	sh := s.shardFor(key)
	sh.data[key] = &Entity{
		Value:   &StringValue{Data: cloneBytes(value)},
		Version: s.ks.tick(),
	}

	switch {
	case options.KeepTTL:
		// retain the existing deadline; a fresh key has none
		if !exists {
			delete(sh.expires, key)
		}
	case options.TTL > 0:
		sh.expires[key] = s.now + int64(options.TTL)
	case !options.ExpireAt.IsZero():
		at := options.ExpireAt.UnixNano()
		if at <= s.now {
			sh.remove(key)
			break
		}
		sh.expires[key] = at
	default:
		delete(sh.expires, key)
	}

	res.Written = true
	return res, nil
}

// GetDel returns the string at key and deletes it
func (s *Scope) GetDel(key string) ([]byte, bool, error) {
	val, ok, err := s.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	s.shardFor(key).remove(key)
	return val, true, nil
}

// Append appends value to the string at key, creating it if needed. Returns the new length
func (s *Scope) Append(key string, value []byte) (int, error) {
	v, e, err := lookupOrCreate(s, key, func() *StringValue { return &StringValue{Data: []byte{}} })
	if err != nil {
		return 0, err
	}
	if len(v.Data)+len(value) > maxStringLength {
		return 0, ErrStringTooLong
	}
	v.Data = append(v.Data, value...)
	s.commit(key, e)
	return len(v.Data), nil
}

// StrLen returns the length of the string at key
func (s *Scope) StrLen(key string) (int, error) {
	v, _, err := s.Get(key)
	return len(v), err
}

// IncrBy adds delta to the integer stored at key, treating a missing key as 0
func (s *Scope) IncrBy(key string, delta int64) (int64, error) {
	v, e, err := lookupOrCreate(s, key, func() *StringValue { return &StringValue{Data: []byte("0")} })
	if err != nil {
		return 0, err
	}

	cur, err := strconv.ParseInt(string(v.Data), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}

	cur += delta
	v.Data = strconv.AppendInt(v.Data[:0:0], cur, 10)
	s.commit(key, e)
	return cur, nil
}

// IncrByFloat adds delta to the float stored at key, treating a missing key as 0
func (s *Scope) IncrByFloat(key string, delta float64) (float64, error) {
	v, e, err := lookupOrCreate(s, key, func() *StringValue { return &StringValue{Data: []byte("0")} })
	if err != nil {
		return 0, err
	}

	cur, err := strconv.ParseFloat(string(v.Data), 64)
	if err != nil || math.IsNaN(cur) || math.IsInf(cur, 0) {
		return 0, ErrNotFloat
	}

	cur += delta
	if math.IsNaN(cur) || math.IsInf(cur, 0) {
		return 0, ErrNaN
	}

	v.Data = []byte(strconv.FormatFloat(cur, 'f', -1, 64))
	s.commit(key, e)
	return cur, nil
}

// GetRange returns the substring between start and end inclusive; negative
// offsets count from the end
func (s *Scope) GetRange(key string, start, end int64) ([]byte, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return []byte{}, err
	}

	n := int64(len(v))
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if n == 0 || start > end {
		return []byte{}, nil
	}
	return v[start : end+1], nil
}

// SetRange overwrites part of the string at key starting at offset, padding
// with zero bytes. Returns the new length
func (s *Scope) SetRange(key string, offset int64, value []byte) (int, error) {
	v, e, err := lookupOrCreate(s, key, func() *StringValue { return &StringValue{Data: []byte{}} })
	if err != nil {
		return 0, err
	}
	if len(value) == 0 {
		return len(v.Data), nil
	}
	if offset > maxStringLength-int64(len(value)) {
		return 0, ErrStringTooLong
	}

	// copy on write: replies may still reference the old bytes
	data := make([]byte, max(int(offset)+len(value), len(v.Data)))
	copy(data, v.Data)
	copy(data[offset:], value)
	v.Data = data
	s.commit(key, e)
	return len(v.Data), nil
}
