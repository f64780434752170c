package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a live session.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// QuestionType discriminates how a question is answered and scored.
type QuestionType string

const (
	QuestionQCM       QuestionType = "qcm"
	QuestionTrueFalse QuestionType = "true_false"
	QuestionFreeText  QuestionType = "free_text"
	QuestionWordCloud QuestionType = "word_cloud"
)

// ConnState tracks participant connection liveness.
type ConnState string

const (
	Connected    ConnState = "connected"
	Disconnected ConnState = "disconnected"
)

// Settings are the host-chosen knobs for one session.
type Settings struct {
	MaxParticipants int  `json:"maxParticipants"`
	AllowLateJoin   bool `json:"allowLateJoin"`
	AllowAnonymous  bool `json:"allowAnonymous"`
	ShowLeaderboard bool `json:"showLeaderboard"`
	AutoAdvance     bool `json:"autoAdvance"`
}

// Option represents a possible answer for a choice question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is quiz content, read-only from the session's point of view.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"` // free_text only
	Points        int          `json:"points"`                  // defaults to 1 if zero
	TimeLimitSec  int          `json:"timeLimitSec"`            // 0 means untimed
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Participant is one member of a session roster. Score, CorrectCount and
// TimeSpentMs are cumulative and only ever updated together with a ledger
// append.
type Participant struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	Anonymous    bool      `json:"anonymous"`
	IdentityRef  string    `json:"identityRef,omitempty"`
	Connection   ConnState `json:"connection"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	AnswerCount  int       `json:"answerCount"`
	TimeSpentMs  int64     `json:"timeSpentMs"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Response is one submitted answer. Immutable once recorded.
type Response struct {
	ParticipantID string    `json:"participantId"`
	QuestionID    string    `json:"questionId"`
	Answer        string    `json:"answer"`
	SubmittedAt   time.Time `json:"submittedAt"`
	TimeSpentMs   int64     `json:"timeSpentMs"`
	Points        int       `json:"points"`
	Correct       bool      `json:"correct"`
}

// Stats is the last-computed aggregate snapshot, always reproducible from
// the roster and ledger.
type Stats struct {
	TotalResponses int       `json:"totalResponses"`
	Leaderboard    []Rank    `json:"leaderboard"`
	ComputedAt     time.Time `json:"computedAt"`
}

// Session is the aggregate owned by one coordinator. All fields are plain
// data so the whole value can be snapshotted, persisted and cloned.
type Session struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Status   Status   `json:"status"`
	QuizID   string   `json:"quizId"`
	HostID   string   `json:"hostId"`
	Settings Settings `json:"settings"`

	CurrentQuestion    *int          `json:"currentQuestion"` // nil until started
	QuestionStartedAt  time.Time     `json:"questionStartedAt"`
	QuestionElapsed    time.Duration `json:"questionElapsed"` // accumulated across pauses
	AcceptingResponses bool          `json:"acceptingResponses"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Errored   bool       `json:"errored"` // set when a scheduler invariant forced the end

	Participants map[string]Participant         `json:"participants"`
	Responses    map[string]map[string]Response `json:"responses"` // questionID -> participantID
	Stats        Stats                          `json:"stats"`
	CreatedAt    time.Time                      `json:"createdAt"`
}

// Clone returns a deep copy. Coordinators mutate clones and swap them in
// wholesale, so a committed *Session is never written to again.
func (s *Session) Clone() *Session {
	out := *s
	if s.CurrentQuestion != nil {
		idx := *s.CurrentQuestion
		out.CurrentQuestion = &idx
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	out.Participants = make(map[string]Participant, len(s.Participants))
	for id, p := range s.Participants {
		out.Participants[id] = p
	}
	out.Responses = make(map[string]map[string]Response, len(s.Responses))
	for qid, byParticipant := range s.Responses {
		m := make(map[string]Response, len(byParticipant))
		for pid, r := range byParticipant {
			m[pid] = r
		}
		out.Responses[qid] = m
	}
	out.Stats.Leaderboard = append([]Rank(nil), s.Stats.Leaderboard...)
	return &out
}

// ResponseFor returns the recorded response for a (question, participant)
// pair, if any.
func (s *Session) ResponseFor(questionID, participantID string) (Response, bool) {
	byParticipant, ok := s.Responses[questionID]
	if !ok {
		return Response{}, false
	}
	r, ok := byParticipant[participantID]
	return r, ok
}

// NameTaken reports whether a trimmed display name collides
// case-insensitively with an existing participant.
func (s *Session) NameTaken(name string) bool {
	folded := strings.ToLower(strings.TrimSpace(name))
	for _, p := range s.Participants {
		if strings.ToLower(p.DisplayName) == folded {
			return true
		}
	}
	return false
}

// QuestionView is a question stripped of its answer key, safe to broadcast.
type QuestionView struct {
	ID           string       `json:"id"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []OptionView `json:"options,omitempty"`
	Points       int          `json:"points"`
	TimeLimitSec int          `json:"timeLimitSec"`
}

// OptionView hides the correct flag.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// View strips the answer key from a question.
func (q Question) View() QuestionView {
	view := QuestionView{
		ID:           q.ID,
		Type:         q.Type,
		Prompt:       q.Prompt,
		Points:       q.Points,
		TimeLimitSec: q.TimeLimitSec,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{ID: opt.ID, Text: opt.Text})
	}
	return view
}
