// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"sync"

	"github.com/jeranaias/olympus-tui/internal/backend"
)

// subscriptionBuffer is large enough for a full streamed reply.
const subscriptionBuffer = 1024

// =============================================================================
// HUB
// =============================================================================

// Hub fans stream events out to subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber. Events published before the call
// are not replayed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan backend.StreamEvent, subscriptionBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		sub.done = true
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers ev to every subscriber. A subscriber whose buffer is
// full misses the event.
func (h *Hub) Publish(ev backend.StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.done = true
		close(sub.ch)
	}
	h.subs = nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	delete(h.subs, sub)
	close(sub.ch)
}

// =============================================================================
// SUBSCRIPTION
// =============================================================================

// Subscription is one consumer of a Hub. It implements backend.StreamSource.
type Subscription struct {
	hub  *Hub
	ch   chan backend.StreamEvent
	done bool // guarded by hub.mu
}

// Events returns the event channel. It is closed by Close or when the hub closes.
func (s *Subscription) Events() <-chan backend.StreamEvent {
	return s.ch
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() error {
	s.hub.remove(s)
	return nil
}

var _ backend.StreamSource = (*Subscription)(nil)
