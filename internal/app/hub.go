package app

import (
	"sync"

	"trivia-live-service/internal/domain"
)

// Hub fans session events out to subscribed listeners. The coordinator is
// the only publisher for its session, so every listener observes events in
// the order they were produced. Sends never block: a slow listener has its
// oldest buffered event dropped rather than stalling command processing —
// a later snapshot resynchronizes it.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

type subscription struct {
	ch            chan domain.Event
	participantID string
	host          bool
}

func newHub() *Hub {
	return &Hub{subs: make(map[*subscription]struct{})}
}

// Subscribe registers a listener for the session topic. Host listeners
// receive host-only events; participant listeners receive all-participants
// events; both receive everyone events and events targeted at their id.
// The caller must invoke cancel to avoid leaks.
func (h *Hub) Subscribe(participantID string, host bool) (<-chan domain.Event, func()) {
	sub := &subscription{
		ch:            make(chan domain.Event, 16),
		participantID: participantID,
		host:          host,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers events to every eligible listener currently subscribed.
// Listeners that subscribe later do not receive them retroactively.
func (h *Hub) Publish(events ...domain.Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		for sub := range h.subs {
			if !sub.eligible(ev) {
				continue
			}
			select {
			case sub.ch <- ev:
			default:
				// Drop the oldest buffered event so the newest wins.
				select {
				case <-sub.ch:
				default:
				}
				sub.ch <- ev
			}
		}
	}
}

func (s *subscription) eligible(ev domain.Event) bool {
	if ev.TargetID != "" {
		return s.participantID == ev.TargetID
	}
	switch ev.Audience {
	case domain.AudienceHost:
		return s.host
	case domain.AudienceParticipants:
		return !s.host
	default:
		return true
	}
}
