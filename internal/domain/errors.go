package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for malformed command input.
	ErrValidation = errors.New("invalid input")
	// ErrSessionNotFound is returned when a session id or join code is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")

	// ErrInvalidStateTransition rejects a lifecycle command illegal for the
	// current status. Wrapped by TransitionError with both states.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrNoParticipants rejects starting a session with an empty roster.
	ErrNoParticipants = errors.New("session has no participants")

	// ErrDuplicateParticipant rejects joining with an id already on the roster.
	ErrDuplicateParticipant = errors.New("participant already joined")
	// ErrNameTaken rejects a display name already in use, case-insensitively.
	ErrNameTaken = errors.New("display name already taken")
	// ErrCapacityExceeded rejects joining a full session.
	ErrCapacityExceeded = errors.New("session is full")
	// ErrSessionNotJoinable rejects joining a session whose status forbids it.
	ErrSessionNotJoinable = errors.New("session is not joinable")

	// ErrDuplicateResponse rejects a second answer for the same question.
	ErrDuplicateResponse = errors.New("response already submitted")
	// ErrStaleSubmission rejects answers for a question no longer accepting them.
	ErrStaleSubmission = errors.New("submission window closed")

	// ErrUnauthorized rejects host controls from a caller who is not the host
	// or an admin.
	ErrUnauthorized = errors.New("not authorized to control this session")
	// ErrOperationFailed signals an underlying persistence or broadcast
	// failure after retries; the aggregate is rolled back.
	ErrOperationFailed = errors.New("operation failed")
)

// TransitionError reports the current status and the one a command attempted
// to reach. errors.Is(err, ErrInvalidStateTransition) matches it.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }
