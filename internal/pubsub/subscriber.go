package pubsub

import (
	"context"
	"errors"
	"iter"
	"sort"
	"sync"
)

// ErrSlowSubscriber is reported by Err once a subscriber was dropped for
// exceeding the mailbox limit
var ErrSlowSubscriber = errors.New("subscriber mailbox limit exceeded")

// Subscriber is one connection's view of the hub. The subscription methods are
// meant to be called from a single goroutine; Messages may run on another
type Subscriber struct {
	hub *Hub

	// guarded by hub.mu
	channels map[string]struct{}
	patterns map[string]struct{}

	mu      sync.Mutex
	queue   []Message
	closed  bool
	dropped bool
	signal  chan struct{}
}

// Change reports the effect of one (un)subscription: the name and the
// subscription count right after it
type Change struct {
	Name  string
	Count int
}

// Subscribe adds channel subscriptions
func (s *Subscriber) Subscribe(channels ...string) []Change {
	return s.update(channels, false, true)
}

// PSubscribe adds pattern subscriptions
func (s *Subscriber) PSubscribe(patterns ...string) []Change {
	return s.update(patterns, true, true)
}

// Unsubscribe drops channel subscriptions, all of them when none are given
func (s *Subscriber) Unsubscribe(channels ...string) []Change {
	return s.update(channels, false, false)
}

// PUnsubscribe drops pattern subscriptions, all of them when none are given
func (s *Subscriber) PUnsubscribe(patterns ...string) []Change {
	return s.update(patterns, true, false)
}

func (s *Subscriber) update(names []string, pattern, subscribe bool) []Change {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	own, table := s.channels, h.channels
	if pattern {
		own, table = s.patterns, h.patterns
	}

	if !subscribe && len(names) == 0 {
		for name := range own {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	out := make([]Change, 0, len(names))
	for _, name := range names {
		if subscribe {
			own[name] = struct{}{}
			add(table, name, s)
		} else {
			delete(own, name)
			remove(table, name, s)
		}
		out = append(out, Change{Name: name, Count: len(s.channels) + len(s.patterns)})
	}
	return out
}

// Count returns the number of active channel and pattern subscriptions
func (s *Subscriber) Count() int {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	return len(s.channels) + len(s.patterns)
}

// Close removes every subscription and ends Messages
func (s *Subscriber) Close() {
	s.Unsubscribe()
	s.PUnsubscribe()

	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
	s.wake()
}

// Err returns ErrSlowSubscriber if the subscriber was dropped
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrSlowSubscriber
	}
	return nil
}

func (s *Subscriber) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// deliver appends m to the mailbox. Returns false when the subscriber is gone
func (s *Subscriber) deliver(m Message, limit int) bool {
	s.mu.Lock()
	if s.closed || s.dropped {
		s.mu.Unlock()
		return false
	}
	if limit > 0 && len(s.queue) >= limit {
		s.dropped = true
		s.queue = nil
		s.mu.Unlock()
		s.wake()
		return false
	}
	s.queue = append(s.queue, m)
	s.mu.Unlock()
	s.wake()
	return true
}

// Messages returns the lazy, unbounded sequence of deliveries. It ends when
// ctx is done, the subscriber is closed or dropped, or the consumer stops
func (s *Subscriber) Messages(ctx context.Context) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for {
			s.mu.Lock()
			batch := s.queue
			s.queue = nil
			done := s.closed || s.dropped
			s.mu.Unlock()

			if done {
				return
			}

			for _, m := range batch {
				if !yield(m) {
					return
				}
			}
			if len(batch) > 0 {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-s.signal:
			}
		}
	}
}
