package zset

import "math/rand/v2"

const (
	maxLevel    = 32
	probability = 0.25
)

// Element is a member with its score
type Element struct {
	Member string
	Score  float64
}

// less orders by score, then byte-wise by member
func (e Element) less(score float64, member string) bool {
	return e.Score < score || (e.Score == score && e.Member < member)
}

type level struct {
	forward *node
	span    int64 // number of nodes skipped by forward
}

type node struct {
	Element
	backward *node
	levels   []level
}

type skiplist struct {
	header *node
	tail   *node
	length int64
	level  int
}

func newNode(lvl int, score float64, member string) *node {
	return &node{
		Element: Element{Member: member, Score: score},
		levels:  make([]level, lvl),
	}
}

func newSkiplist() *skiplist {
	return &skiplist{
		header: newNode(maxLevel, 0, ""),
		level:  1,
	}
}

func randomLevel() int {
	lvl := 1
	for lvl < maxLevel && rand.Float64() < probability {
		lvl++
	}
	return lvl
}

// insert adds a node. The caller guarantees member is not present
func (sl *skiplist) insert(member string, score float64) *node {
	var update [maxLevel]*node
	var rank [maxLevel]int64

	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.levels[i].forward != nil && x.levels[i].forward.less(score, member) {
			rank[i] += x.levels[i].span
			x = x.levels[i].forward
		}
		update[i] = x
	}

	lvl := randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.header
			update[i].levels[i].span = sl.length
		}
		sl.level = lvl
	}

	x = newNode(lvl, score, member)
	for i := 0; i < lvl; i++ {
		x.levels[i].forward = update[i].levels[i].forward
		update[i].levels[i].forward = x

		x.levels[i].span = update[i].levels[i].span - (rank[0] - rank[i])
		update[i].levels[i].span = rank[0] - rank[i] + 1
	}

	for i := lvl; i < sl.level; i++ {
		update[i].levels[i].span++
	}

	if update[0] != sl.header {
		x.backward = update[0]
	}
	if x.levels[0].forward != nil {
		x.levels[0].forward.backward = x
	} else {
		sl.tail = x
	}
	sl.length++
	return x
}

func (sl *skiplist) removeNode(x *node, update *[maxLevel]*node) {
	for i := 0; i < sl.level; i++ {
		if update[i].levels[i].forward == x {
			update[i].levels[i].span += x.levels[i].span - 1
			update[i].levels[i].forward = x.levels[i].forward
		} else {
			update[i].levels[i].span--
		}
	}
	if x.levels[0].forward != nil {
		x.levels[0].forward.backward = x.backward
	} else {
		sl.tail = x.backward
	}
	for sl.level > 1 && sl.header.levels[sl.level-1].forward == nil {
		sl.level--
	}
	sl.length--
}

// remove deletes the node matching (score, member). Returns false if absent
func (sl *skiplist) remove(member string, score float64) bool {
	var update [maxLevel]*node

	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && x.levels[i].forward.less(score, member) {
			x = x.levels[i].forward
		}
		update[i] = x
	}

	x = x.levels[0].forward
	if x != nil && x.Score == score && x.Member == member {
		sl.removeNode(x, &update)
		return true
	}
	return false
}

// rank returns the 1-based position of (score, member), 0 if absent
func (sl *skiplist) rank(member string, score float64) int64 {
	var r int64
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil &&
			(x.levels[i].forward.less(score, member) ||
				(x.levels[i].forward.Score == score && x.levels[i].forward.Member == member)) {
			r += x.levels[i].span
			x = x.levels[i].forward
		}
		if x != sl.header && x.Member == member && x.Score == score {
			return r
		}
	}
	return 0
}

// byRank returns the node at 1-based rank
func (sl *skiplist) byRank(rank int64) *node {
	if rank < 1 || rank > sl.length {
		return nil
	}
	var traversed int64
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && traversed+x.levels[i].span <= rank {
			traversed += x.levels[i].span
			x = x.levels[i].forward
		}
		if traversed == rank {
			return x
		}
	}
	return nil
}

// firstInRange returns the first node whose score is within r
func (sl *skiplist) firstInRange(r ScoreRange) *node {
	if !sl.intersects(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && !r.Min.admitsAsMin(x.levels[i].forward.Score) {
			x = x.levels[i].forward
		}
	}
	x = x.levels[0].forward
	if x == nil || !r.Max.admitsAsMax(x.Score) {
		return nil
	}
	return x
}

// lastInRange returns the last node whose score is within r
func (sl *skiplist) lastInRange(r ScoreRange) *node {
	if !sl.intersects(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && r.Max.admitsAsMax(x.levels[i].forward.Score) {
			x = x.levels[i].forward
		}
	}
	if x == sl.header || !r.Min.admitsAsMin(x.Score) {
		return nil
	}
	return x
}

func (sl *skiplist) intersects(r ScoreRange) bool {
	if r.empty() || sl.length == 0 {
		return false
	}
	if !r.Min.admitsAsMin(sl.tail.Score) {
		return false
	}
	first := sl.header.levels[0].forward
	return r.Max.admitsAsMax(first.Score)
}
