// Package events carries filesystem lifecycle notifications from the
// coordinator to subscribers (the HTTP SSE stream, tests). Delivery is
// fire-and-forget and at most once: a subscriber whose buffer is full
// misses the event rather than blocking a filesystem operation.
package events

import (
	"sync"
	"time"
)

// Event type names emitted by the coordinator.
const (
	Initialized      = "fs:initialized"
	FileCreated      = "fs:file:created"
	FileRead         = "fs:file:read"
	FileWritten      = "fs:file:written"
	FileDeleted      = "fs:file:deleted"
	FileRenamed      = "fs:file:renamed"
	FileMoved        = "fs:file:moved"
	FileCopied       = "fs:file:copied"
	DirectoryCreated = "fs:directory:created"
	DirectoryListed  = "fs:directory:listed"
	DirectoryDeleted = "fs:directory:deleted"
	Error            = "fs:error"
)

// Event is a single notification.
type Event struct {
	Type   string         `json:"type"`
	Path   string         `json:"path"`
	Time   time.Time      `json:"time"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given channel buffer and
// returns the receive channel plus a cancel function. Cancel closes the
// channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Emit delivers evt to every subscriber without blocking; slow subscribers
// drop it. Emit stamps the event time when unset.
func (b *Bus) Emit(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
