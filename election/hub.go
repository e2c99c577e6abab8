// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"sync"

	"github.com/danielhkuo/quickly-vote/metrics"
	"github.com/danielhkuo/quickly-vote/models"
)

// Hub fans snapshots out to subscribers. Each subscriber holds at most one
// pending snapshot; a slow reader only ever sees the latest.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan models.Snapshot
	nextID int
	last   *models.Snapshot
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan models.Snapshot)}
}

// Subscribe returns a channel of snapshots and a function to unsubscribe.
// The latest published snapshot, if any, is delivered right away.
func (h *Hub) Subscribe() (<-chan models.Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.Snapshot, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.last != nil {
		ch <- *h.last
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	metrics.Subscribers.Set(float64(len(h.subs)))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
				metrics.Subscribers.Set(float64(len(h.subs)))
			}
		})
	}
}

// Publish delivers s to every subscriber without blocking
func (h *Hub) Publish(s models.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last = &s
	for _, ch := range h.subs {
		// drop the stale pending value
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	metrics.Subscribers.Set(0)
}

// Len returns the number of active subscribers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
