// Package events provides typed, in-process publish/subscribe used to keep
// caches and branch-aware components in sync with record mutations.
package events

import (
	"sync"
)

// Op identifies the kind of record mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// RecordChanged is published after a record is written or removed.
type RecordChanged struct {
	Bucket   string
	ID       string
	BranchID string
	Op       Op
}

// BranchChanged is published when a user selects a different current branch.
// An empty BranchID means the user switched to all branches.
type BranchChanged struct {
	UserID   string
	BranchID string
}

// Emitter fans an event out to every subscriber synchronously, in
// subscription order.
type Emitter[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64
}

// NewEmitter returns an empty emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{subs: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns a function that removes it again.
func (e *Emitter[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs[id] = fn
	e.order = append(e.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
			for i, v := range e.order {
				if v == id {
					e.order = append(e.order[:i], e.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers evt to all current subscribers.
func (e *Emitter[T]) Publish(evt T) {
	e.mu.RLock()
	handlers := make([]func(T), 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.subs[id])
	}
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(evt)
	}
}

// Len returns the number of active subscribers.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Bus groups the emitters shared across services.
type Bus struct {
	Records  *Emitter[RecordChanged]
	Branches *Emitter[BranchChanged]
}

// NewBus constructs a bus with empty emitters.
func NewBus() *Bus {
	return &Bus{
		Records:  NewEmitter[RecordChanged](),
		Branches: NewEmitter[BranchChanged](),
	}
}
