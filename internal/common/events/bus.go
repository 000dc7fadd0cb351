// Package events provides a small typed publish/subscribe bus shared by the
// repositories and services.
package events

import (
	"sort"
	"sync"
)

// Handler receives the payload of an emitted event.
type Handler[T any] func(T)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	event string
	id    uint64
}

// Wildcard subscribes to every event name.
const Wildcard = "*"

// Bus dispatches payloads of one type to handlers registered per event name.
// Handlers run synchronously on the emitting goroutine, in registration order.
// A panicking handler is recovered so it cannot break the emitter.
type Bus[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]Handler[T]
	onPanic  func(event string, recovered any)
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[string]map[uint64]Handler[T])}
}

// OnPanic installs a hook that observes recovered handler panics.
func (b *Bus[T]) OnPanic(fn func(event string, recovered any)) {
	b.mu.Lock()
	b.onPanic = fn
	b.mu.Unlock()
}

// On registers fn for event. Use Wildcard to observe every event.
func (b *Bus[T]) On(event string, fn Handler[T]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[uint64]Handler[T])
	}
	b.handlers[event][b.nextID] = fn
	return Subscription{event: event, id: b.nextID}
}

// Off removes a handler. Removing twice is a no-op.
func (b *Bus[T]) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if hs, ok := b.handlers[sub.event]; ok {
		delete(hs, sub.id)
		if len(hs) == 0 {
			delete(b.handlers, sub.event)
		}
	}
}

// Emit calls every handler registered for event, then wildcard handlers.
func (b *Bus[T]) Emit(event string, payload T) {
	b.mu.RLock()
	targets := collect(b.handlers[event])
	if event != Wildcard {
		targets = append(targets, collect(b.handlers[Wildcard])...)
	}
	onPanic := b.onPanic
	b.mu.RUnlock()

	for _, h := range targets {
		b.call(event, h, payload, onPanic)
	}
}

// Count returns the number of handlers registered for event.
func (b *Bus[T]) Count(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Clear drops every subscription.
func (b *Bus[T]) Clear() {
	b.mu.Lock()
	b.handlers = make(map[string]map[uint64]Handler[T])
	b.mu.Unlock()
}

func (b *Bus[T]) call(event string, h Handler[T], payload T, onPanic func(string, any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(event, r)
		}
	}()
	h(payload)
}

func collect[T any](hs map[uint64]Handler[T]) []Handler[T] {
	if len(hs) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(hs))
	for id := range hs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Handler[T], 0, len(ids))
	for _, id := range ids {
		out = append(out, hs[id])
	}
	return out
}
