package server

import (
	"context"
	"sync"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
)

// blockRequest describes what a suspended command waits for. serve runs with
// a scope over key and extra, and returns false when key has nothing to give
type blockRequest struct {
	keys    []string
	extra   []string
	timeout time.Duration // 0 waits forever
	serve   func(scope *storage.Scope, key string) (resp.Value, bool)
}

type waiter struct {
	req    *blockRequest
	result chan resp.Value // buffered, receives exactly one reply
	served bool
}

// blockingManager keeps FIFO queues of waiters per key. Its mutex is always
// taken before any shard lock, never while holding one
type blockingManager struct {
	mu     sync.Mutex
	ks     *storage.Keyspace
	queues map[string][]*waiter
	ready  []string // keys that gained elements and may serve waiters
}

func newBlockingManager(ks *storage.Keyspace) *blockingManager {
	return &blockingManager{
		ks:     ks,
		queues: make(map[string][]*waiter),
	}
}

// signal is the keyspace push hook
func (m *blockingManager) signal(keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queues) == 0 {
		return
	}
	m.ready = append(m.ready, keys...)
	m.drain()
}

func (m *blockingManager) drain() {
	for len(m.ready) > 0 {
		key := m.ready[0]
		m.ready = m.ready[1:]
		m.serveKey(key)
	}
	m.ready = nil
}

// serveKey hands elements of key to its waiters in arrival order until the
// list or the queue runs out
func (m *blockingManager) serveKey(key string) {
	for {
		queue := m.queues[key]
		if len(queue) == 0 {
			return
		}
		w := queue[0]

		scope := m.ks.Acquire(append([]string{key}, w.req.extra...)...)
		res, ok := w.req.serve(scope, key)
		// pushes made while serving (BLMOVE) are handled by this drain
		m.ready = append(m.ready, scope.TakePushed()...)
		scope.Release()

		if !ok {
			return
		}

		m.unregister(w)
		w.served = true
		w.result <- res
	}
}

func (m *blockingManager) unregister(w *waiter) {
	for _, key := range w.req.keys {
		queue := m.queues[key]
		kept := queue[:0]
		for _, other := range queue {
			if other != w {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(m.queues, key)
		} else {
			m.queues[key] = kept
		}
	}
}

// wait registers a waiter for req and suspends until it is served, the
// timeout fires or ctx is done. The registration never outlives the call
func (m *blockingManager) wait(ctx context.Context, req *blockRequest) resp.Value {
	w := &waiter{req: req, result: make(chan resp.Value, 1)}

	m.mu.Lock()
	for _, key := range req.keys {
		m.queues[key] = append(m.queues[key], w)
	}
	// a push may have landed between the failed attempt and the registration
	m.ready = append(m.ready, req.keys...)
	m.drain()
	m.mu.Unlock()

	var timeout <-chan time.Time
	if req.timeout > 0 {
		timer := time.NewTimer(req.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-w.result:
		return res
	case <-timeout:
	case <-ctx.Done():
	}

	m.mu.Lock()
	served := w.served
	if !served {
		m.unregister(w)
	}
	m.mu.Unlock()

	if served {
		return <-w.result
	}
	return resp.MakeNilArray()
}

// waiting returns the number of waiters queued on key
func (m *blockingManager) waiting(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[key])
}
