package storage

func newList() *ListValue {
	return &ListValue{}
}

// Push adds values at the head (left) or tail of the list at key. With
// onlyIfExists a missing key is left untouched and 0 is returned
func (s *Scope) Push(key string, left, onlyIfExists bool, values ...[]byte) (int, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil {
		return 0, err
	}
	if e == nil {
		if onlyIfExists {
			return 0, nil
		}
		l = newList()
		e = &Entity{Value: l}
	}

	for _, v := range values {
		if left {
			l.pushFront(cloneBytes(v))
		} else {
			l.pushBack(cloneBytes(v))
		}
	}

	s.commit(key, e)
	s.notifyPush(key)
	return l.Len(), nil
}

// Pop removes up to count elements from one end. A missing key returns nil
func (s *Scope) Pop(key string, left bool, count int) ([][]byte, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return nil, err
	}

	out := make([][]byte, 0, min(count, l.Len()))
	for len(out) < count {
		var v []byte
		var ok bool
		if left {
			v, ok = l.popFront()
		} else {
			v, ok = l.popBack()
		}
		if !ok {
			break
		}
		out = append(out, v)
	}

	if len(out) > 0 {
		s.commit(key, e)
	}
	return out, nil
}

// LLen returns the length of the list at key
func (s *Scope) LLen(key string) (int, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	return l.Len(), nil
}

// normalizeIndexes resolves negative list offsets and clamps them
func normalizeIndexes(start, stop int64, n int) (int, int, bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop), true
}

// LRange returns the elements between start and stop inclusive
func (s *Scope) LRange(key string, start, stop int64) ([][]byte, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return [][]byte{}, err
	}

	from, to, ok := normalizeIndexes(start, stop, l.Len())
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, l.at(i))
	}
	return out, nil
}

func resolveIndex(index int64, n int) (int, bool) {
	if index < 0 {
		index += int64(n)
	}
	if index < 0 || index >= int64(n) {
		return 0, false
	}
	return int(index), true
}

// LIndex returns the element at index
func (s *Scope) LIndex(key string, index int64) ([]byte, bool, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return nil, false, err
	}
	i, ok := resolveIndex(index, l.Len())
	if !ok {
		return nil, false, nil
	}
	return l.at(i), true, nil
}

// LSet replaces the element at index
func (s *Scope) LSet(key string, index int64, value []byte) error {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNoSuchKey
	}
	i, ok := resolveIndex(index, l.Len())
	if !ok {
		return ErrIndexOutOfRange
	}
	l.set(i, cloneBytes(value))
	s.commit(key, e)
	return nil
}

// LTrim keeps only the elements between start and stop inclusive. Trimming
// everything deletes the key
func (s *Scope) LTrim(key string, start, stop int64) error {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return err
	}

	from, to, ok := normalizeIndexes(start, stop, l.Len())
	if !ok {
		l.reset(nil)
		s.commit(key, e)
		return nil
	}
	if from == 0 && to == l.Len()-1 {
		return nil
	}

	items := l.items()
	l.reset(items[from : to+1])
	s.commit(key, e)
	return nil
}

// LRem removes occurrences of value: count > 0 from the head, count < 0 from
// the tail, 0 for all. Returns the number removed
func (s *Scope) LRem(key string, count int64, value []byte) (int, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}

	items := l.items()
	keep := make([]bool, len(items))
	for i := range keep {
		keep[i] = true
	}

	removed := 0
	limit := count
	if limit < 0 {
		limit = -limit
	}
	visit := func(i int) bool {
		if string(items[i]) == string(value) {
			keep[i] = false
			removed++
			if limit > 0 && int64(removed) >= limit {
				return false
			}
		}
		return true
	}
	if count >= 0 {
		for i := 0; i < len(items) && visit(i); i++ {
		}
	} else {
		for i := len(items) - 1; i >= 0 && visit(i); i-- {
		}
	}

	if removed == 0 {
		return 0, nil
	}

	rest := make([][]byte, 0, len(items)-removed)
	for i, it := range items {
		if keep[i] {
			rest = append(rest, it)
		}
	}
	l.reset(rest)
	s.commit(key, e)
	return removed, nil
}

// LInsert inserts value before or after the first occurrence of pivot.
// Returns the new length, -1 when pivot is missing and 0 when key is missing
func (s *Scope) LInsert(key string, before bool, pivot, value []byte) (int, error) {
	l, e, err := lookupAs[*ListValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}

	items := l.items()
	for i, it := range items {
		if string(it) != string(pivot) {
			continue
		}
		at := i
		if !before {
			at = i + 1
		}
		grown := make([][]byte, 0, len(items)+1)
		grown = append(grown, items[:at]...)
		grown = append(grown, cloneBytes(value))
		grown = append(grown, items[at:]...)
		l.reset(grown)
		s.commit(key, e)
		s.notifyPush(key)
		return l.Len(), nil
	}
	return -1, nil
}

// Move pops one element from src and pushes it to dst atomically. The
// destination type is checked before anything is popped
func (s *Scope) Move(src, dst string, fromLeft, toLeft bool) ([]byte, bool, error) {
	srcList, srcEntity, err := lookupAs[*ListValue](s, src)
	if err != nil || srcEntity == nil {
		return nil, false, err
	}
	if _, _, err := lookupAs[*ListValue](s, dst); err != nil {
		return nil, false, err
	}

	var v []byte
	if fromLeft {
		v, _ = srcList.popFront()
	} else {
		v, _ = srcList.popBack()
	}
	s.commit(src, srcEntity)

	if _, err := s.Push(dst, toLeft, false, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}
