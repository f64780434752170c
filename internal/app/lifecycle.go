package app

import "trivia-live-service/internal/domain"

// transitions is the session lifecycle table. Terminal states have no
// outgoing edges; everything absent here fails with a TransitionError.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusWaiting: {domain.StatusActive, domain.StatusCancelled},
	domain.StatusActive:  {domain.StatusPaused, domain.StatusFinished, domain.StatusCancelled},
	domain.StatusPaused:  {domain.StatusActive, domain.StatusFinished, domain.StatusCancelled},
}

func canTransition(from, to domain.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition moves the session to a new status or reports the illegal edge
// with both states. Guards beyond the table (roster non-empty, idempotent
// end) belong to the callers.
func transition(s *domain.Session, to domain.Status) error {
	if !canTransition(s.Status, to) {
		return &domain.TransitionError{From: s.Status, To: to}
	}
	s.Status = to
	return nil
}
