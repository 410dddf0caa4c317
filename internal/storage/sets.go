package storage

import "math/rand/v2"

func newSet() SetValue {
	return make(SetValue)
}

// SAdd adds members and returns how many were new
func (s *Scope) SAdd(key string, members ...string) (int, error) {
	set, e, err := lookupOrCreate(s, key, newSet)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if _, ok := set[m]; !ok {
			set[m] = struct{}{}
			n++
		}
	}
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// SRem removes members and returns how many existed
func (s *Scope) SRem(key string, members ...string) (int, error) {
	set, e, err := lookupAs[SetValue](s, key)
	if err != nil || e == nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if _, ok := set[m]; ok {
			delete(set, m)
			n++
		}
	}
	if n > 0 {
		s.commit(key, e)
	}
	return n, nil
}

// SIsMember reports whether member belongs to the set
func (s *Scope) SIsMember(key, member string) (bool, error) {
	set, _, err := lookupAs[SetValue](s, key)
	if err != nil {
		return false, err
	}
	_, ok := set[member]
	return ok, nil
}

// SMembers returns the members in lexicographic order
func (s *Scope) SMembers(key string) ([]string, error) {
	set, _, err := lookupAs[SetValue](s, key)
	if err != nil {
		return nil, err
	}
	return set.sorted(), nil
}

// SCard returns the set cardinality
func (s *Scope) SCard(key string) (int, error) {
	set, _, err := lookupAs[SetValue](s, key)
	return len(set), err
}

// SPop removes and returns up to count random members
func (s *Scope) SPop(key string, count int) ([]string, error) {
	set, e, err := lookupAs[SetValue](s, key)
	if err != nil || e == nil {
		return []string{}, err
	}
	out := make([]string, 0, min(count, len(set)))
	for m := range set {
		if len(out) >= count {
			break
		}
		delete(set, m)
		out = append(out, m)
	}
	if len(out) > 0 {
		s.commit(key, e)
	}
	return out, nil
}

// SRandMember returns random members without removing them. A positive count
// yields distinct members, a negative one allows repeats and returns exactly
// -count members
func (s *Scope) SRandMember(key string, count int) ([]string, error) {
	set, e, err := lookupAs[SetValue](s, key)
	if err != nil || e == nil || count == 0 {
		return []string{}, err
	}

	members := set.sorted()
	if count > 0 {
		rand.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		return members[:min(count, len(members))], nil
	}

	out := make([]string, -count)
	for i := range out {
		out[i] = members[rand.IntN(len(members))]
	}
	return out, nil
}

// SMove moves member from src to dst
func (s *Scope) SMove(src, dst, member string) (bool, error) {
	from, fromEntity, err := lookupAs[SetValue](s, src)
	if err != nil {
		return false, err
	}
	to, toEntity, err := lookupOrCreate(s, dst, newSet)
	if err != nil {
		return false, err
	}
	if fromEntity == nil {
		return false, nil
	}
	if _, ok := from[member]; !ok {
		return false, nil
	}
	if src == dst {
		return true, nil
	}

	delete(from, member)
	s.commit(src, fromEntity)
	to[member] = struct{}{}
	s.commit(dst, toEntity)
	return true, nil
}

// SetOp selects the algebra of SCombine
type SetOp int

const (
	SetUnion SetOp = iota
	SetInter
	SetDiff
)

// SCombine computes the union, intersection or difference of the sets at keys
func (s *Scope) SCombine(op SetOp, keys ...string) (SetValue, error) {
	sets := make([]SetValue, len(keys))
	for i, key := range keys {
		set, _, err := lookupAs[SetValue](s, key)
		if err != nil {
			return nil, err
		}
		sets[i] = set
	}

	out := newSet()
	switch op {
	case SetUnion:
		for _, set := range sets {
			for m := range set {
				out[m] = struct{}{}
			}
		}
	case SetInter:
		smallest := 0
		for i, set := range sets {
			if len(set) < len(sets[smallest]) {
				smallest = i
			}
		}
	members:
		for m := range sets[smallest] {
			for _, set := range sets {
				if _, ok := set[m]; !ok {
					continue members
				}
			}
			out[m] = struct{}{}
		}
	case SetDiff:
		for m := range sets[0] {
			out[m] = struct{}{}
		}
		for _, set := range sets[1:] {
			for m := range set {
				delete(out, m)
			}
		}
	}
	return out, nil
}

// SMembersOf is SCombine returning sorted members
func (s *Scope) SMembersOf(op SetOp, keys ...string) ([]string, error) {
	out, err := s.SCombine(op, keys...)
	if err != nil {
		return nil, err
	}
	return out.sorted(), nil
}

// SStore writes the combination of keys to dst, replacing it. An empty result
// deletes dst. Returns the cardinality of the result
func (s *Scope) SStore(op SetOp, dst string, keys ...string) (int, error) {
	out, err := s.SCombine(op, keys...)
	if err != nil {
		return 0, err
	}
	s.replace(dst, out)
	return len(out), nil
}
