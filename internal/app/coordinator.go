package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"trivia-live-service/internal/domain"
)

const internalCommandTimeout = 5 * time.Second

// SessionRepository is the durable store for session snapshots, keyed by id
// and join code.
type SessionRepository interface {
	Save(ctx context.Context, sess domain.Session) error
	ByID(ctx context.Context, id string) (domain.Session, error)
	ByCode(ctx context.Context, code string) (domain.Session, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// JoinRequest carries the inputs of a join command. ParticipantID is empty
// for anonymous joins, in which case one is generated.
type JoinRequest struct {
	ParticipantID string
	DisplayName   string
	Anonymous     bool
	IdentityRef   string
}

// Coordinator owns one live session. Every mutating command runs under its
// mutex against a deep copy of the last committed snapshot; the copy is
// persisted with bounded retries and only then swapped in, so concurrent
// check-then-act sequences (name uniqueness, capacity, duplicate responses)
// are atomic and a persistence failure never leaves partial state visible.
type Coordinator struct {
	mu        sync.Mutex
	committed *domain.Session
	quiz      domain.Quiz

	store SessionRepository
	hub   *Hub
	timer *questionTimer
	super *Supervisor

	now     func() time.Time
	retries int
}

// Options tune a coordinator's timers and persistence behavior. Zero values
// fall back to defaults.
type Options struct {
	PersistRetries      int
	HeartbeatInterval   time.Duration
	MaxMissedHeartbeats int
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PersistRetries <= 0 {
		o.PersistRetries = 2
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 5 * time.Second
	}
	if o.MaxMissedHeartbeats <= 0 {
		o.MaxMissedHeartbeats = 3
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewCoordinator wires a coordinator around an initial session snapshot and
// its read-only quiz content, and starts the heartbeat supervisor.
func NewCoordinator(sess *domain.Session, quiz domain.Quiz, store SessionRepository, opts Options) *Coordinator {
	opts = opts.withDefaults()
	c := &Coordinator{
		committed: sess,
		quiz:      quiz,
		store:     store,
		hub:       newHub(),
		now:       opts.Now,
		retries:   opts.PersistRetries,
	}
	c.timer = newQuestionTimer(c.questionTimeout)
	c.super = newSupervisor(opts.HeartbeatInterval, opts.MaxMissedHeartbeats, opts.Now, c.heartbeatTimeout)
	go c.super.run()
	return c
}

// ID returns the session id.
func (c *Coordinator) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed.ID
}

// Code returns the session join code.
func (c *Coordinator) Code() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed.Code
}

// Snapshot returns the committed session. The returned value shares maps
// with the committed snapshot and must be treated as read-only.
func (c *Coordinator) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.committed
}

// mutateLocked clones the committed snapshot, applies the command, persists
// the result and swaps it in, publishing the produced events in order. On
// any failure the committed snapshot is untouched.
func (c *Coordinator) mutateLocked(ctx context.Context, apply func(s *domain.Session) ([]domain.Event, error)) error {
	working := c.committed.Clone()
	events, err := apply(working)
	if err != nil {
		return err
	}
	if err := c.persistLocked(ctx, working); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}
	c.committed = working
	c.hub.Publish(events...)
	return nil
}

func (c *Coordinator) persistLocked(ctx context.Context, sess *domain.Session) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err = c.store.Save(ctx, *sess); err == nil {
			return nil
		}
	}
	return err
}

// Join adds a participant to the roster. Uniqueness, capacity and
// joinability are checked atomically against the current snapshot under the
// coordinator lock, so two racing joins with colliding names cannot both
// succeed.
func (c *Coordinator) Join(ctx context.Context, req JoinRequest) (domain.Participant, error) {
	name := strings.TrimSpace(req.DisplayName)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return domain.Participant{}, fmt.Errorf("%w: display name must be 2-50 characters", domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var joined domain.Participant
	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		joinable := s.Status == domain.StatusWaiting ||
			(s.Status == domain.StatusActive && s.Settings.AllowLateJoin)
		if !joinable {
			return nil, domain.ErrSessionNotJoinable
		}
		if req.Anonymous && !s.Settings.AllowAnonymous {
			return nil, domain.ErrSessionNotJoinable
		}
		id := req.ParticipantID
		if id == "" {
			id = "p_" + uuid.NewString()[:8]
		}
		if _, exists := s.Participants[id]; exists {
			return nil, domain.ErrDuplicateParticipant
		}
		if s.NameTaken(name) {
			return nil, domain.ErrNameTaken
		}
		if s.Settings.MaxParticipants > 0 && len(s.Participants) >= s.Settings.MaxParticipants {
			return nil, domain.ErrCapacityExceeded
		}

		joined = domain.Participant{
			ID:          id,
			DisplayName: name,
			Anonymous:   req.Anonymous,
			IdentityRef: req.IdentityRef,
			Connection:  domain.Connected,
			JoinedAt:    c.now(),
		}
		s.Participants[id] = joined
		return []domain.Event{{
			Type:     domain.EventParticipantJoined,
			Audience: domain.AudienceEveryone,
			Payload:  domain.ParticipantJoinedPayload{Participant: joined, RosterSize: len(s.Participants)},
		}}, nil
	})
	if err != nil {
		return domain.Participant{}, err
	}
	c.super.Track(joined.ID)
	return joined, nil
}

// Remove deletes a participant. Only permitted before the session starts;
// afterwards participants are soft-disconnected, never removed.
func (c *Coordinator) Remove(ctx context.Context, participantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusWaiting {
			return nil, &domain.TransitionError{From: s.Status, To: s.Status}
		}
		if _, ok := s.Participants[participantID]; !ok {
			return nil, domain.ErrParticipantNotFound
		}
		delete(s.Participants, participantID)
		return []domain.Event{{
			Type:     domain.EventParticipantLeft,
			Audience: domain.AudienceEveryone,
			Payload:  domain.ParticipantGonePayload{ParticipantID: participantID},
		}}, nil
	})
	if err != nil {
		return err
	}
	c.super.Untrack(participantID)
	return nil
}

// Start moves the session from waiting to active on question 0 and arms the
// first question timer.
func (c *Coordinator) Start(ctx context.Context) (domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusWaiting {
			return nil, &domain.TransitionError{From: s.Status, To: domain.StatusActive}
		}
		if len(s.Participants) == 0 {
			return nil, domain.ErrNoParticipants
		}
		if err := transition(s, domain.StatusActive); err != nil {
			return nil, err
		}
		now := c.now()
		s.StartedAt = &now
		idx := 0
		s.CurrentQuestion = &idx
		s.QuestionStartedAt = now
		s.QuestionElapsed = 0
		s.AcceptingResponses = true

		return []domain.Event{
			{
				Type:     domain.EventSessionStarted,
				Audience: domain.AudienceEveryone,
				Payload:  domain.SessionStartedPayload{StartedAt: now},
			},
			{
				Type:     domain.EventQuestionChanged,
				Audience: domain.AudienceEveryone,
				Payload: domain.QuestionChangedPayload{
					Index:     0,
					Question:  c.quiz.Questions[0].View(),
					StartedAt: now,
				},
			},
		}, nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	c.armTimerLocked()
	return *c.committed, nil
}

// Pause freezes the session. The question timer is cancelled and the time
// already spent on the current question is banked, so the paused duration
// is not counted against participants.
func (c *Coordinator) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusActive {
			return nil, &domain.TransitionError{From: s.Status, To: domain.StatusPaused}
		}
		now := c.now()
		s.QuestionElapsed += now.Sub(s.QuestionStartedAt)
		if err := transition(s, domain.StatusPaused); err != nil {
			return nil, err
		}
		return []domain.Event{{
			Type:     domain.EventSessionPaused,
			Audience: domain.AudienceEveryone,
			Payload:  domain.SessionPausedPayload{PausedAt: now},
		}}, nil
	})
	if err != nil {
		return err
	}
	c.timer.stop()
	return nil
}

// Resume reactivates a paused session. The question restarts its clock at
// now with the pre-pause elapsed time banked, so the remaining time equals
// the remaining time at the moment of pause.
func (c *Coordinator) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusPaused {
			return nil, &domain.TransitionError{From: s.Status, To: domain.StatusActive}
		}
		if err := transition(s, domain.StatusActive); err != nil {
			return nil, err
		}
		now := c.now()
		s.QuestionStartedAt = now
		return []domain.Event{{
			Type:     domain.EventSessionResumed,
			Audience: domain.AudienceEveryone,
			Payload:  domain.SessionResumedPayload{ResumedAt: now},
		}}, nil
	})
	if err != nil {
		return err
	}
	c.armTimerLocked()
	return nil
}

// End finishes the session and computes final stats. Ending an already
// finished session is idempotent: it returns the existing snapshot without
// a new transition or a duplicate session_ended broadcast.
func (c *Coordinator) End(ctx context.Context) (domain.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed.Status == domain.StatusFinished {
		return *c.committed, nil
	}
	if err := c.endLocked(ctx, false); err != nil {
		return domain.Session{}, err
	}
	return *c.committed, nil
}

func (c *Coordinator) endLocked(ctx context.Context, errored bool) error {
	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if err := transition(s, domain.StatusFinished); err != nil {
			return nil, err
		}
		now := c.now()
		s.EndedAt = &now
		s.AcceptingResponses = false
		s.Errored = s.Errored || errored
		s.Stats = computeStats(s, now)

		return []domain.Event{
			{
				Type:     domain.EventSessionEnded,
				Audience: domain.AudienceEveryone,
				Payload:  domain.SessionEndedPayload{EndedAt: now, Errored: s.Errored},
			},
			{
				Type:     domain.EventLeaderboardUpdated,
				Audience: domain.AudienceEveryone,
				Payload:  domain.LeaderboardUpdatedPayload{Leaderboard: s.Stats.Leaderboard},
			},
		}, nil
	})
	if err != nil {
		return err
	}
	c.timer.stop()
	c.super.Stop()
	return nil
}

// Cancel aborts the session from any non-terminal state. No further
// mutation is accepted afterward.
func (c *Coordinator) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if err := transition(s, domain.StatusCancelled); err != nil {
			return nil, err
		}
		s.AcceptingResponses = false
		return []domain.Event{{
			Type:     domain.EventSessionCancelled,
			Audience: domain.AudienceEveryone,
			Payload:  domain.SessionCancelledPayload{CancelledAt: c.now()},
		}}, nil
	})
	if err != nil {
		return err
	}
	c.timer.stop()
	c.super.Stop()
	return nil
}

// Next advances to the following question; Previous steps back. Both clamp
// to the question range and re-arm a fresh timer at the new question.
func (c *Coordinator) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed.CurrentQuestion == nil {
		return fmt.Errorf("%w: session not started", domain.ErrInvalidStateTransition)
	}
	return c.changeQuestionLocked(ctx, *c.committed.CurrentQuestion+1)
}

func (c *Coordinator) Previous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed.CurrentQuestion == nil {
		return fmt.Errorf("%w: session not started", domain.ErrInvalidStateTransition)
	}
	return c.changeQuestionLocked(ctx, *c.committed.CurrentQuestion-1)
}

func (c *Coordinator) changeQuestionLocked(ctx context.Context, target int) error {
	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusActive && s.Status != domain.StatusPaused {
			return nil, &domain.TransitionError{From: s.Status, To: s.Status}
		}
		total := len(c.quiz.Questions)
		if target < 0 {
			target = 0
		}
		if target > total-1 {
			target = total - 1
		}
		now := c.now()
		s.CurrentQuestion = &target
		s.QuestionStartedAt = now
		s.QuestionElapsed = 0
		s.AcceptingResponses = true

		return []domain.Event{{
			Type:     domain.EventQuestionChanged,
			Audience: domain.AudienceEveryone,
			Payload: domain.QuestionChangedPayload{
				Index:     target,
				Question:  c.quiz.Questions[target].View(),
				StartedAt: now,
			},
		}}, nil
	})
	if err != nil {
		return err
	}
	c.armTimerLocked()
	return nil
}

// Submit records an answer for the current question. The ledger append and
// the participant's cumulative score update are committed together, so no
// intermediate state is ever observable.
func (c *Coordinator) Submit(ctx context.Context, participantID, questionID, answer string, timeSpentMs int64) (domain.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var recorded domain.Response
	err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		if s.Status != domain.StatusActive || !s.AcceptingResponses || s.CurrentQuestion == nil {
			return nil, domain.ErrStaleSubmission
		}
		idx := *s.CurrentQuestion
		if idx < 0 || idx >= len(c.quiz.Questions) {
			return nil, fmt.Errorf("question index %d out of range", idx)
		}
		current := c.quiz.Questions[idx]
		if current.ID != questionID {
			if !c.hasQuestion(questionID) {
				return nil, domain.ErrQuestionNotFound
			}
			return nil, domain.ErrStaleSubmission
		}
		p, ok := s.Participants[participantID]
		if !ok {
			return nil, domain.ErrParticipantNotFound
		}
		if _, dup := s.ResponseFor(questionID, participantID); dup {
			return nil, domain.ErrDuplicateResponse
		}

		correct, points := domain.Score(current, answer)
		recorded = domain.Response{
			ParticipantID: participantID,
			QuestionID:    questionID,
			Answer:        answer,
			SubmittedAt:   c.now(),
			TimeSpentMs:   timeSpentMs,
			Points:        points,
			Correct:       correct,
		}
		if s.Responses[questionID] == nil {
			s.Responses[questionID] = make(map[string]domain.Response)
		}
		s.Responses[questionID][participantID] = recorded

		p.Score += points
		p.AnswerCount++
		if correct {
			p.CorrectCount++
		}
		p.TimeSpentMs += timeSpentMs
		s.Participants[participantID] = p

		events := []domain.Event{{
			Type:     domain.EventResponseReceived,
			Audience: domain.AudienceHost,
			Payload: domain.ResponseReceivedPayload{
				ParticipantID: participantID,
				QuestionID:    questionID,
				Correct:       correct,
				Points:        points,
			},
		}}
		if s.Settings.ShowLeaderboard {
			events = append(events, domain.Event{
				Type:     domain.EventLeaderboardUpdated,
				Audience: domain.AudienceEveryone,
				Payload:  domain.LeaderboardUpdatedPayload{Leaderboard: domain.ComputeLeaderboard(s.Participants)},
			})
		}
		return events, nil
	})
	if err != nil {
		return domain.Response{}, err
	}
	return recorded, nil
}

// Heartbeat records participant liveness. A beat from a participant marked
// disconnected flips it back to connected and resynchronizes that listener
// with a targeted snapshot.
func (c *Coordinator) Heartbeat(ctx context.Context, participantID string) error {
	c.mu.Lock()
	p, ok := c.committed.Participants[participantID]
	if !ok {
		c.mu.Unlock()
		return domain.ErrParticipantNotFound
	}
	if p.Connection == domain.Disconnected {
		if err := c.markConnectionLocked(ctx, participantID, domain.Connected); err != nil {
			c.mu.Unlock()
			return err
		}
		c.hub.Publish(c.snapshotEventLocked(participantID))
	}
	terminal := c.committed.Status.Terminal()
	c.mu.Unlock()

	if !terminal {
		c.super.Heartbeat(participantID)
	}
	return nil
}

// MarkDisconnected flips a participant to disconnected without touching
// roster membership. Used by the transport when a connection drops.
func (c *Coordinator) MarkDisconnected(ctx context.Context, participantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.committed.Participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if p.Connection == domain.Disconnected || c.committed.Status.Terminal() {
		return nil
	}
	return c.markConnectionLocked(ctx, participantID, domain.Disconnected)
}

func (c *Coordinator) markConnectionLocked(ctx context.Context, participantID string, state domain.ConnState) error {
	return c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
		p, ok := s.Participants[participantID]
		if !ok {
			return nil, domain.ErrParticipantNotFound
		}
		p.Connection = state
		s.Participants[participantID] = p

		evType := domain.EventParticipantDisconnected
		if state == domain.Connected {
			evType = domain.EventParticipantReconnected
		}
		return []domain.Event{{
			Type:     evType,
			Audience: domain.AudienceEveryone,
			Payload:  domain.ParticipantGonePayload{ParticipantID: participantID},
		}}, nil
	})
}

// heartbeatTimeout is the supervisor's callback for a participant that
// missed too many beats.
func (c *Coordinator) heartbeatTimeout(participantID string) {
	ctx, cancel := context.WithTimeout(context.Background(), internalCommandTimeout)
	defer cancel()
	if err := c.MarkDisconnected(ctx, participantID); err != nil {
		log.Printf("session %s: mark disconnected %s: %v", c.ID(), participantID, err)
	}
}

// questionTimeout is the timer's callback. With auto-advance enabled it
// drives next() or end() through the same serialized command path; without
// it only the response-acceptance window closes.
func (c *Coordinator) questionTimeout(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), internalCommandTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timer.current() {
		return
	}
	s := c.committed
	if s.Status != domain.StatusActive || s.CurrentQuestion == nil {
		return
	}
	idx := *s.CurrentQuestion
	if idx < 0 || idx >= len(c.quiz.Questions) {
		c.failLocked(ctx, fmt.Errorf("question index %d out of range [0,%d)", idx, len(c.quiz.Questions)))
		return
	}

	if !s.Settings.AutoAdvance {
		err := c.mutateLocked(ctx, func(s *domain.Session) ([]domain.Event, error) {
			s.AcceptingResponses = false
			return nil, nil
		})
		if err != nil {
			log.Printf("session %s: close submission window: %v", s.ID, err)
		}
		return
	}

	var err error
	if idx >= len(c.quiz.Questions)-1 {
		err = c.endLocked(ctx, false)
	} else {
		err = c.changeQuestionLocked(ctx, idx+1)
	}
	if err != nil {
		log.Printf("session %s: auto-advance: %v", s.ID, err)
	}
}

// failLocked forces the session to finished with the error flag set. A
// corrupted cursor must not be allowed to damage further state; other
// sessions are unaffected.
func (c *Coordinator) failLocked(ctx context.Context, cause error) {
	log.Printf("session %s: fatal scheduler invariant: %v", c.committed.ID, cause)
	if err := c.endLocked(ctx, true); err != nil {
		log.Printf("session %s: force finish: %v", c.committed.ID, err)
	}
}

// armTimerLocked arms the timeout for the current question, accounting for
// time already elapsed before a pause. Untimed questions disarm the timer.
func (c *Coordinator) armTimerLocked() {
	s := c.committed
	if s.Status != domain.StatusActive || s.CurrentQuestion == nil {
		c.timer.stop()
		return
	}
	idx := *s.CurrentQuestion
	if idx < 0 || idx >= len(c.quiz.Questions) {
		ctx, cancel := context.WithTimeout(context.Background(), internalCommandTimeout)
		defer cancel()
		c.failLocked(ctx, fmt.Errorf("question index %d out of range [0,%d)", idx, len(c.quiz.Questions)))
		return
	}
	q := c.quiz.Questions[idx]
	if q.TimeLimitSec <= 0 {
		c.timer.stop()
		return
	}
	remaining := time.Duration(q.TimeLimitSec)*time.Second - s.QuestionElapsed
	if remaining < 0 {
		remaining = 0
	}
	c.timer.arm(remaining)
}

// Subscribe attaches a listener to the session topic and primes it with a
// full-state snapshot so late or reconnecting listeners resynchronize.
func (c *Coordinator) Subscribe(participantID string, host bool) (<-chan domain.Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, cancel := c.hub.Subscribe(participantID, host)
	c.hub.Publish(c.snapshotEventLocked(participantID))
	return ch, cancel
}

func (c *Coordinator) snapshotEventLocked(targetID string) domain.Event {
	return domain.Event{
		Type:     domain.EventSnapshot,
		TargetID: targetID,
		Payload:  c.snapshotPayloadLocked(targetID),
	}
}

func (c *Coordinator) snapshotPayloadLocked(forParticipant string) domain.SnapshotPayload {
	s := c.committed
	payload := domain.SnapshotPayload{
		SessionID: s.ID,
		Code:      s.Code,
		Title:     s.Title,
		Status:    s.Status,
		Roster:    rosterByJoinTime(s.Participants),
	}
	if s.CurrentQuestion != nil && *s.CurrentQuestion >= 0 && *s.CurrentQuestion < len(c.quiz.Questions) {
		idx := *s.CurrentQuestion
		view := c.quiz.Questions[idx].View()
		payload.CurrentQuestion = &view
		payload.QuestionIndex = &idx
		payload.TimeRemainingMs = c.timeRemainingLocked().Milliseconds()
	}
	if s.Settings.ShowLeaderboard || s.Status == domain.StatusFinished {
		payload.Leaderboard = domain.ComputeLeaderboard(s.Participants)
	}
	if p, ok := s.Participants[forParticipant]; ok {
		payload.OwnScore = p.Score
	}
	return payload
}

// TimeRemaining reports how long the current question keeps accepting
// answers. Zero for untimed questions and sessions not running.
func (c *Coordinator) TimeRemaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeRemainingLocked()
}

func (c *Coordinator) timeRemainingLocked() time.Duration {
	s := c.committed
	if s.CurrentQuestion == nil {
		return 0
	}
	idx := *s.CurrentQuestion
	if idx < 0 || idx >= len(c.quiz.Questions) {
		return 0
	}
	q := c.quiz.Questions[idx]
	if q.TimeLimitSec <= 0 {
		return 0
	}
	elapsed := s.QuestionElapsed
	if s.Status == domain.StatusActive {
		elapsed += c.now().Sub(s.QuestionStartedAt)
	}
	remaining := time.Duration(q.TimeLimitSec)*time.Second - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Leaderboard recomputes the ranked standings from the committed snapshot.
func (c *Coordinator) Leaderboard() []domain.Rank {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ComputeLeaderboard(c.committed.Participants)
}

// Close releases the coordinator's background resources without changing
// session state. Used on process shutdown.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.timer.stop()
	c.mu.Unlock()
	c.super.Stop()
}

func (c *Coordinator) hasQuestion(questionID string) bool {
	for i := range c.quiz.Questions {
		if c.quiz.Questions[i].ID == questionID {
			return true
		}
	}
	return false
}

func computeStats(s *domain.Session, now time.Time) domain.Stats {
	total := 0
	for _, byParticipant := range s.Responses {
		total += len(byParticipant)
	}
	return domain.Stats{
		TotalResponses: total,
		Leaderboard:    domain.ComputeLeaderboard(s.Participants),
		ComputedAt:     now,
	}
}

func rosterByJoinTime(participants map[string]domain.Participant) []domain.Participant {
	roster := make([]domain.Participant, 0, len(participants))
	for _, p := range participants {
		roster = append(roster, p)
	}
	sort.Slice(roster, func(i, j int) bool {
		if !roster[i].JoinedAt.Equal(roster[j].JoinedAt) {
			return roster[i].JoinedAt.Before(roster[j].JoinedAt)
		}
		return roster[i].ID < roster[j].ID
	})
	return roster
}
