// Package notify delivers state-change callbacks in the order the changes
// happened without holding the publisher's lock during delivery.
package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Queue serializes deliveries. Publishers Enqueue while holding their own
// lock (so queue order matches mutation order), release it, then call Drain.
// Whichever goroutine finds the queue idle delivers everything pending,
// including work enqueued re-entrantly by the callbacks themselves.
type Queue struct {
	mu         sync.Mutex
	pending    []func()
	delivering bool
}

// Enqueue appends a delivery.
func (q *Queue) Enqueue(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs pending deliveries until the queue is empty. It returns
// immediately if another call is already draining.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.delivering {
		q.mu.Unlock()
		return
	}
	q.delivering = true

	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		deliver(next)

		q.mu.Lock()
	}

	q.delivering = false
	q.mu.Unlock()
}

// deliver isolates a panicking listener so the queue keeps draining.
func deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Listener panicked")
		}
	}()
	fn()
}

// Registry holds listeners in subscription order.
type Registry[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns a function that removes it. The returned
// function is idempotent.
func (r *Registry[T]) Add(fn func(T)) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listener[T]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *Registry[T]) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if l.id == id {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Clear removes every listener.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.listeners = nil
	r.mu.Unlock()
}

// Broadcast returns a delivery that calls every listener registered at the
// time of the call with v.
func (r *Registry[T]) Broadcast(v T) func() {
	r.mu.Lock()
	fns := make([]func(T), len(r.listeners))
	for i, l := range r.listeners {
		fns[i] = l.fn
	}
	r.mu.Unlock()

	return func() {
		for _, fn := range fns {
			fn(v)
		}
	}
}
