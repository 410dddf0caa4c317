package storage

// deque is a ring buffer of byte strings with O(1) push and pop at both ends
type deque struct {
	buf  [][]byte
	head int
	size int
}

func (d *deque) Len() int {
	return d.size
}

func (d *deque) grow() {
	n := len(d.buf) * 2
	if n == 0 {
		n = 8
	}
	buf := make([][]byte, n)
	for i := 0; i < d.size; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}

func (d *deque) pushBack(v []byte) {
	if d.size == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.size)%len(d.buf)] = v
	d.size++
}

func (d *deque) pushFront(v []byte) {
	if d.size == len(d.buf) {
		d.grow()
	}
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.size++
}

func (d *deque) popFront() ([]byte, bool) {
	if d.size == 0 {
		return nil, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.size--
	return v, true
}

func (d *deque) popBack() ([]byte, bool) {
	if d.size == 0 {
		return nil, false
	}
	idx := (d.head + d.size - 1) % len(d.buf)
	v := d.buf[idx]
	d.buf[idx] = nil
	d.size--
	return v, true
}

// at returns the element at a non-negative index below Len
func (d *deque) at(i int) []byte {
	return d.buf[(d.head+i)%len(d.buf)]
}

func (d *deque) set(i int, v []byte) {
	d.buf[(d.head+i)%len(d.buf)] = v
}

// items returns a copy of the element slice headers in order
func (d *deque) items() [][]byte {
	out := make([][]byte, d.size)
	for i := range out {
		out[i] = d.at(i)
	}
	return out
}

// reset replaces the content with items
func (d *deque) reset(items [][]byte) {
	d.buf = make([][]byte, max(len(items), 8))
	copy(d.buf, items)
	d.head = 0
	d.size = len(items)
}
