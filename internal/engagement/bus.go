// Package engagement keeps client-side like and comment-count state in step with the server.
package engagement

import "sync"

// Bus delivers events of one type to its subscribers. Each owner creates its
// own Bus; there is no process-wide registry.
type Bus[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every subscriber synchronously, outside the lock, so handlers may
// subscribe or unsubscribe.
func (b *Bus[T]) Publish(ev T) {
	b.mu.RLock()
	fns := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
