package domain

import "time"

// EventType names an outbound session event.
type EventType string

const (
	EventParticipantJoined       EventType = "participant_joined"
	EventParticipantLeft         EventType = "participant_left"
	EventParticipantDisconnected EventType = "participant_disconnected"
	EventParticipantReconnected  EventType = "participant_reconnected"
	EventSessionStarted          EventType = "session_started"
	EventSessionPaused           EventType = "session_paused"
	EventSessionResumed          EventType = "session_resumed"
	EventSessionEnded            EventType = "session_ended"
	EventSessionCancelled        EventType = "session_cancelled"
	EventQuestionChanged         EventType = "question_changed"
	EventResponseReceived        EventType = "response_received"
	EventLeaderboardUpdated      EventType = "leaderboard_updated"
	EventSnapshot                EventType = "snapshot"
)

// Audience selects which listeners receive an event.
type Audience string

const (
	AudienceEveryone     Audience = "everyone"
	AudienceParticipants Audience = "all-participants"
	AudienceHost         Audience = "host-only"
)

// Event is one fan-out unit. Events for a session are delivered to every
// eligible listener in publication order. TargetID, when set, narrows
// delivery to a single participant regardless of Audience.
type Event struct {
	Type     EventType `json:"type"`
	Audience Audience  `json:"-"`
	TargetID string    `json:"-"`
	Payload  any       `json:"payload"`
}

// Event payloads, one struct per event type.

type ParticipantJoinedPayload struct {
	Participant Participant `json:"participant"`
	RosterSize  int         `json:"rosterSize"`
}

type ParticipantGonePayload struct {
	ParticipantID string `json:"participantId"`
}

type SessionStartedPayload struct {
	StartedAt time.Time `json:"startedAt"`
}

type SessionPausedPayload struct {
	PausedAt time.Time `json:"pausedAt"`
}

type SessionResumedPayload struct {
	ResumedAt time.Time `json:"resumedAt"`
}

type SessionEndedPayload struct {
	EndedAt time.Time `json:"endedAt"`
	Errored bool      `json:"errored,omitempty"`
}

type SessionCancelledPayload struct {
	CancelledAt time.Time `json:"cancelledAt"`
}

type QuestionChangedPayload struct {
	Index     int          `json:"index"`
	Question  QuestionView `json:"question"`
	StartedAt time.Time    `json:"startedAt"`
}

type ResponseReceivedPayload struct {
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
}

type LeaderboardUpdatedPayload struct {
	Leaderboard []Rank `json:"leaderboard"`
}

// SnapshotPayload resynchronizes one connection with the full session state.
type SnapshotPayload struct {
	SessionID       string        `json:"sessionId"`
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	Status          Status        `json:"status"`
	Roster          []Participant `json:"roster"`
	CurrentQuestion *QuestionView `json:"currentQuestion,omitempty"`
	QuestionIndex   *int          `json:"questionIndex,omitempty"`
	TimeRemainingMs int64         `json:"timeRemainingMs"`
	Leaderboard     []Rank        `json:"leaderboard,omitempty"`
	OwnScore        int           `json:"ownScore"`
}
