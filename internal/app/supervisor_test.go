package app

import (
	"sync"
	"testing"
	"time"
)

type timeoutRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *timeoutRecorder) record(id string) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
}

func (r *timeoutRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestSupervisorReportsSilentParticipant(t *testing.T) {
	rec := &timeoutRecorder{}
	s := newSupervisor(10*time.Millisecond, 1, time.Now, rec.record)
	go s.run()
	defer s.Stop()

	s.Track("p1")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ids := rec.snapshot(); len(ids) == 1 && ids[0] == "p1" {
			// untracked after timeout, no repeat reports
			time.Sleep(50 * time.Millisecond)
			if again := rec.snapshot(); len(again) != 1 {
				t.Fatalf("timeout reported more than once: %v", again)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout never reported, got %v", rec.snapshot())
}

func TestSupervisorHeartbeatKeepsAlive(t *testing.T) {
	rec := &timeoutRecorder{}
	s := newSupervisor(10*time.Millisecond, 1, time.Now, rec.record)
	go s.run()
	defer s.Stop()

	s.Track("p1")
	for i := 0; i < 20; i++ {
		s.Heartbeat("p1")
		time.Sleep(5 * time.Millisecond)
	}
	if ids := rec.snapshot(); len(ids) != 0 {
		t.Fatalf("beating participant timed out: %v", ids)
	}
}

func TestSupervisorUntrackSilences(t *testing.T) {
	rec := &timeoutRecorder{}
	s := newSupervisor(10*time.Millisecond, 1, time.Now, rec.record)
	go s.run()
	defer s.Stop()

	s.Track("p1")
	s.Untrack("p1")

	time.Sleep(100 * time.Millisecond)
	if ids := rec.snapshot(); len(ids) != 0 {
		t.Fatalf("untracked participant reported: %v", ids)
	}
}

func TestSupervisorStopIsIdempotent(t *testing.T) {
	s := newSupervisor(10*time.Millisecond, 1, time.Now, func(string) {})
	go s.run()
	s.Stop()
	s.Stop()
}

func TestQuestionTimerStaleGeneration(t *testing.T) {
	fired := make(chan uint64, 4)
	qt := newQuestionTimer(func(gen uint64) { fired <- gen })

	qt.arm(10 * time.Millisecond)
	qt.stop()

	select {
	case gen := <-fired:
		if gen == qt.current() {
			t.Fatalf("stale callback matched the live generation")
		}
	case <-time.After(50 * time.Millisecond):
		// Stop usually wins the race and the callback never runs.
	}

	qt.arm(10 * time.Millisecond)
	live := qt.current()
	select {
	case gen := <-fired:
		if gen != live {
			t.Fatalf("expected generation %d, got %d", live, gen)
		}
	case <-time.After(time.Second):
		t.Fatalf("armed timer never fired")
	}
}
