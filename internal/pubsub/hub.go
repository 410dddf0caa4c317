// Package pubsub routes published messages to channel and pattern
// subscribers. Publishing never blocks: every subscriber owns an unbounded
// mailbox that its connection drains at its own pace.
package pubsub

import (
	"sort"
	"sync"

	"github.com/eternalApril/umbra/internal/glob"
)

// Message is one delivery. Pattern is set when it matched a PSUBSCRIBE
type Message struct {
	Pattern string
	Channel string
	Payload []byte
}

// Hub holds the subscription tables
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Subscriber]struct{}
	patterns map[string]map[*Subscriber]struct{}
	limit    int
}

// NewHub creates a Hub. A subscriber with more than mailboxLimit pending
// messages is dropped; 0 disables the limit
func NewHub(mailboxLimit int) *Hub {
	return &Hub{
		channels: make(map[string]map[*Subscriber]struct{}),
		patterns: make(map[string]map[*Subscriber]struct{}),
		limit:    mailboxLimit,
	}
}

// NewSubscriber creates a subscriber without any subscription
func (h *Hub) NewSubscriber() *Subscriber {
	return &Subscriber{
		hub:      h,
		signal:   make(chan struct{}, 1),
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
	}
}

// Publish delivers payload to every subscriber of channel and of each matching
// pattern. Returns the number of deliveries
func (h *Hub) Publish(channel string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for sub := range h.channels[channel] {
		if sub.deliver(Message{Channel: channel, Payload: payload}, h.limit) {
			n++
		}
	}
	for pattern, subs := range h.patterns {
		if !glob.Match(pattern, channel) {
			continue
		}
		for sub := range subs {
			if sub.deliver(Message{Pattern: pattern, Channel: channel, Payload: payload}, h.limit) {
				n++
			}
		}
	}
	return n
}

// Channels lists the active channels matching pattern, sorted. An empty
// pattern matches everything
func (h *Hub) Channels(pattern string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := []string{}
	for ch := range h.channels {
		if pattern == "" || glob.Match(pattern, ch) {
			out = append(out, ch)
		}
	}
	sort.Strings(out)
	return out
}

// NumSub returns the number of channel subscribers for each channel
func (h *Hub) NumSub(channels ...string) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]int, len(channels))
	for i, ch := range channels {
		out[i] = len(h.channels[ch])
	}
	return out
}

// NumPat returns the number of distinct patterns subscribed to
func (h *Hub) NumPat() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.patterns)
}

func add(table map[string]map[*Subscriber]struct{}, name string, sub *Subscriber) {
	subs, ok := table[name]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		table[name] = subs
	}
	subs[sub] = struct{}{}
}

func remove(table map[string]map[*Subscriber]struct{}, name string, sub *Subscriber) {
	subs, ok := table[name]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(table, name)
	}
}
