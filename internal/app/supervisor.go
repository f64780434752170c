package app

import (
	"sync"
	"time"
)

// Supervisor watches participant heartbeats for one session. A participant
// missing more than maxMissed consecutive sweeps is reported through
// onTimeout (which marks it disconnected) and untracked until it beats
// again. Host connections are never tracked; a host dropping off does not
// affect the session lifecycle.
type Supervisor struct {
	interval  time.Duration
	maxMissed int
	now       func() time.Time
	onTimeout func(participantID string)

	mu       sync.Mutex
	lastSeen map[string]time.Time
	missed   map[string]int

	stop chan struct{}
	once sync.Once
}

func newSupervisor(interval time.Duration, maxMissed int, now func() time.Time, onTimeout func(string)) *Supervisor {
	return &Supervisor{
		interval:  interval,
		maxMissed: maxMissed,
		now:       now,
		onTimeout: onTimeout,
		lastSeen:  make(map[string]time.Time),
		missed:    make(map[string]int),
		stop:      make(chan struct{}),
	}
}

func (s *Supervisor) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep counts one missed beat for every tracked participant that has not
// reported since the previous tick. Timeouts are delivered outside the lock
// so the coordinator can re-enter Track/Heartbeat without deadlocking.
func (s *Supervisor) sweep() {
	now := s.now()
	var timedOut []string

	s.mu.Lock()
	for id, last := range s.lastSeen {
		if now.Sub(last) <= s.interval {
			s.missed[id] = 0
			continue
		}
		s.missed[id]++
		if s.missed[id] > s.maxMissed {
			timedOut = append(timedOut, id)
			delete(s.lastSeen, id)
			delete(s.missed, id)
		}
	}
	s.mu.Unlock()

	for _, id := range timedOut {
		s.onTimeout(id)
	}
}

// Track starts watching a participant, treating now as its first beat.
func (s *Supervisor) Track(participantID string) {
	s.mu.Lock()
	s.lastSeen[participantID] = s.now()
	s.missed[participantID] = 0
	s.mu.Unlock()
}

// Heartbeat records a liveness signal, resuming tracking after a timeout.
func (s *Supervisor) Heartbeat(participantID string) {
	s.Track(participantID)
}

// Untrack stops watching a participant without reporting a timeout.
func (s *Supervisor) Untrack(participantID string) {
	s.mu.Lock()
	delete(s.lastSeen, participantID)
	delete(s.missed, participantID)
	s.mu.Unlock()
}

// Stop halts the sweep loop. Safe to call more than once.
func (s *Supervisor) Stop() {
	s.once.Do(func() { close(s.stop) })
}
