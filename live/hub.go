/*
Package live fans committed changes out to subscribers and keeps
derived reports fresh.

PURPOSE:
  The Coordinator publishes a pos.Change after every committed write.
  The Hub delivers it to every subscriber interested in that
  collection. Watch turns the change stream into a stream of freshly
  computed snapshots, which the HTTP layer sends as Server-Sent Events.

DELIVERY:
  Publish never blocks. A subscriber whose buffer is full misses the
  event; Watch only needs to know that something changed, and a full
  buffer already says so.

LIFECYCLE:
  A subscription lives until its context ends, then its channel is
  closed.

SEE ALSO:
  - pos/coordinator.go: Publishes after commit
  - api/server.go:      GET /api/live
*/
package live

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/warp/taproom/pos"
)

const subscriberBuffer = 64

type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	dropped atomic.Uint64
}

type subscriber struct {
	ch    chan pos.Change
	wants map[pos.Collection]bool // nil means every collection
}

func (s *subscriber) match(c pos.Collection) bool {
	return s.wants == nil || s.wants[c]
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Publish delivers c to every interested subscriber without blocking.
func (h *Hub) Publish(c pos.Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if !s.match(c.Collection) {
			continue
		}
		select {
		case s.ch <- c:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe returns a channel of changes to the given collections, or to
// every collection when none are given. The channel is closed when ctx
// ends.
func (h *Hub) Subscribe(ctx context.Context, collections ...pos.Collection) <-chan pos.Change {
	s := &subscriber{ch: make(chan pos.Change, subscriberBuffer)}
	if len(collections) > 0 {
		s.wants = make(map[pos.Collection]bool, len(collections))
		for _, c := range collections {
			s.wants[c] = true
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, s)
		close(s.ch)
		h.mu.Unlock()
	}()
	return s.ch
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many events were discarded because a subscriber
// was not keeping up.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
