// Package stream provides the in-process fan-out for live complaint
// snapshots. Every successful lifecycle mutation publishes the fresh
// snapshot; dashboards and tracking views hold subscriptions and re-render
// from whole snapshots rather than deltas.
package stream

import (
	"log/slog"
	"sync"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
)

// Snapshot is one full-state update pushed to subscribers.
type Snapshot struct {
	Complaint *models.Complaint
	Event     string // "created", "status_changed", "assigned", "public_update"
}

// TopicAll receives every complaint snapshot; per-complaint topics are the
// complaint ID itself.
const TopicAll = "*"

const subscriberBuffer = 16

type subscriber struct {
	topic string
	ch    chan Snapshot
}

// Hub fans complaint snapshots out to subscribers. Subscribers own their
// cancellation: the cancel func returned by Subscribe must run before the
// consuming scope ends. A subscriber that stops draining is dropped rather
// than blocked on.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers interest in a topic (a complaint ID, or TopicAll).
// The returned channel closes when cancel is called or the hub shuts down.
func (h *Hub) Subscribe(topic string) (<-chan Snapshot, func()) {
	sub := &subscriber{
		topic: topic,
		ch:    make(chan Snapshot, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.ch)
			}
			h.mu.Unlock()
		})
	}

	return sub.ch, cancel
}

// Publish delivers a snapshot to the complaint's topic and the wildcard
// topic. Non-blocking: a subscriber with a full buffer is unsubscribed so a
// stalled websocket cannot back-pressure the mutation path.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for sub := range h.subs {
		if sub.topic != TopicAll && sub.topic != snap.Complaint.ID {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
			h.logger.Warn("dropping slow stream subscriber",
				slog.String("topic", sub.topic))
			delete(h.subs, sub)
			close(sub.ch)
		}
	}
}

// Close tears down all subscriptions; used on graceful shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.ch)
	}
}
