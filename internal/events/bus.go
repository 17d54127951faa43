// Package events fans match events out to subscribers.
//
// Delivery is at most once and lossy: every subscriber has a bounded buffer,
// and when it is full the oldest unread event is discarded to make room.
// Publishing never blocks. A subscriber that needs the authoritative view
// after falling behind must ask the match for a snapshot.
package events

import (
	"sync"
	"sync/atomic"
)

// Event types sent to clients.
const (
	TypeState           = "state"
	TypeWaitingRoom     = "waiting_room"
	TypeVoteRequested   = "vote_requested"
	TypeVoteRejected    = "vote_rejected"
	TypeConsensusForced = "consensus_forced"
	TypeGameOver        = "game_over"
)

// Event is a tagged payload. Payloads must not be modified after Publish.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// DefaultBuffer is the per-subscriber buffer size used when none is given.
const DefaultBuffer = 100

// Bus is a fan-out broadcaster. The zero value is not usable; use NewBus.
type Bus struct {
	buffer int

	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus returns a bus whose subscribers buffer up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Bus{buffer: buffer, subs: map[*Subscription]struct{}{}}
}

// Subscription receives events published after it was created.
type Subscription struct {
	bus     *Bus
	ch      chan Event
	once    sync.Once
	dropped atomic.Uint64
}

// Subscribe registers a new subscriber. On a closed bus the returned
// subscription's channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{bus: b, ch: make(chan Event, b.buffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.once.Do(func() { close(s.ch) })
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		s.offer(e)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
}

// offer enqueues e, evicting the oldest buffered events while full. Callers
// hold the bus read lock, so the channel cannot be closed underneath.
func (s *Subscription) offer(e Event) {
	for {
		select {
		case s.ch <- e:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// C returns the event channel. It is closed by Close or when the bus closes.
func (s *Subscription) C() <-chan Event { return s.ch }

// Dropped counts events discarded because the subscriber fell behind.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unsubscribes and closes the channel. It is safe to call twice.
func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
	s.once.Do(func() { close(s.ch) })
}
