package app

import "time"

// questionTimer arms at most one pending timeout for the current question.
// Every arm or stop bumps the generation, so a callback from a timer that
// was superseded while waiting for the coordinator lock is discarded by
// comparing generations. All methods must be called under the coordinator
// lock.
type questionTimer struct {
	gen   uint64
	timer *time.Timer
	fire  func(gen uint64)
}

func newQuestionTimer(fire func(gen uint64)) *questionTimer {
	return &questionTimer{fire: fire}
}

// arm schedules fire after d, cancelling any pending timeout.
func (qt *questionTimer) arm(d time.Duration) {
	qt.stop()
	gen := qt.gen
	qt.timer = time.AfterFunc(d, func() { qt.fire(gen) })
}

// stop cancels the pending timeout, if any.
func (qt *questionTimer) stop() {
	if qt.timer != nil {
		qt.timer.Stop()
		qt.timer = nil
	}
	qt.gen++
}

// current reports the generation a live callback must match.
func (qt *questionTimer) current() uint64 {
	return qt.gen
}
