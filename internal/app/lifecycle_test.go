package app

import (
	"errors"
	"testing"

	"trivia-live-service/internal/domain"
)

func TestLifecycleTable(t *testing.T) {
	allowed := []struct{ from, to domain.Status }{
		{domain.StatusWaiting, domain.StatusActive},
		{domain.StatusWaiting, domain.StatusCancelled},
		{domain.StatusActive, domain.StatusPaused},
		{domain.StatusActive, domain.StatusFinished},
		{domain.StatusActive, domain.StatusCancelled},
		{domain.StatusPaused, domain.StatusActive},
		{domain.StatusPaused, domain.StatusFinished},
		{domain.StatusPaused, domain.StatusCancelled},
	}
	for _, tc := range allowed {
		if !canTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be legal", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to domain.Status }{
		{domain.StatusWaiting, domain.StatusPaused},
		{domain.StatusWaiting, domain.StatusFinished},
		{domain.StatusActive, domain.StatusWaiting},
		{domain.StatusPaused, domain.StatusWaiting},
		{domain.StatusFinished, domain.StatusActive},
		{domain.StatusFinished, domain.StatusCancelled},
		{domain.StatusCancelled, domain.StatusActive},
		{domain.StatusCancelled, domain.StatusFinished},
	}
	for _, tc := range forbidden {
		if canTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be illegal", tc.from, tc.to)
		}
	}
}

func TestTransitionReportsBothStates(t *testing.T) {
	s := &domain.Session{Status: domain.StatusFinished}
	err := transition(s, domain.StatusActive)
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %T", err)
	}
	if te.From != domain.StatusFinished || te.To != domain.StatusActive {
		t.Fatalf("unexpected edge %s -> %s", te.From, te.To)
	}
	if s.Status != domain.StatusFinished {
		t.Fatalf("failed transition mutated status to %s", s.Status)
	}
}
