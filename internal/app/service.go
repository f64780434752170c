package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-live-service/internal/domain"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the length of a session join code.
const CodeLength = 6

// CoordinatorRegistry tracks live coordinators in this process, addressable
// by session id or join code.
type CoordinatorRegistry interface {
	Register(c *Coordinator)
	ByID(id string) (*Coordinator, bool)
	ByCode(code string) (*Coordinator, bool)
	CodeInUse(code string) bool
	Delete(id string)
}

// Authorizer answers whether a caller may control a session. Quiz-owner and
// admin checks live behind this interface with the external identity
// service.
type Authorizer interface {
	Authorize(ctx context.Context, callerID string, sess domain.Session) error
}

// HostAuthorizer permits the session host and a fixed admin set. The default
// collaborator when no external authorization service is wired.
type HostAuthorizer struct {
	Admins map[string]bool
}

func (a HostAuthorizer) Authorize(_ context.Context, callerID string, sess domain.Session) error {
	if callerID != "" && (callerID == sess.HostID || a.Admins[callerID]) {
		return nil
	}
	return domain.ErrUnauthorized
}

// SessionService is the top-level facade: it creates sessions and routes
// commands to the owning coordinator by session id or join code.
type SessionService struct {
	registry CoordinatorRegistry
	sessions SessionRepository
	quizzes  QuizRepository
	auth     Authorizer
	opts     Options

	codeAttempts int

	mu  sync.Mutex
	rnd *rand.Rand
}

// ServiceConfig wires a SessionService.
type ServiceConfig struct {
	Registry     CoordinatorRegistry
	Sessions     SessionRepository
	Quizzes      QuizRepository
	Auth         Authorizer
	Coordinator  Options
	CodeAttempts int // join-code collision retries, default 10
}

func NewSessionService(cfg ServiceConfig) *SessionService {
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 10
	}
	if cfg.Auth == nil {
		cfg.Auth = HostAuthorizer{}
	}
	return &SessionService{
		registry:     cfg.Registry,
		sessions:     cfg.Sessions,
		quizzes:      cfg.Quizzes,
		auth:         cfg.Auth,
		opts:         cfg.Coordinator.withDefaults(),
		codeAttempts: cfg.CodeAttempts,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateSession loads the quiz content, allocates a unique join code and
// registers a fresh coordinator for the new session.
func (s *SessionService) CreateSession(ctx context.Context, hostID, quizRef, title string, settings domain.Settings) (domain.Session, error) {
	if hostID == "" || quizRef == "" {
		return domain.Session{}, fmt.Errorf("%w: host and quiz are required", domain.ErrValidation)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizRef)
	if err != nil {
		return domain.Session{}, err
	}
	if len(quiz.Questions) == 0 {
		return domain.Session{}, fmt.Errorf("%w: quiz has no questions", domain.ErrValidation)
	}
	if title == "" {
		title = quiz.Title
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	now := s.opts.Now()
	sess := &domain.Session{
		ID:           uuid.NewString(),
		Code:         code,
		Title:        title,
		Status:       domain.StatusWaiting,
		QuizID:       quiz.ID,
		HostID:       hostID,
		Settings:     settings,
		Participants: make(map[string]domain.Participant),
		Responses:    make(map[string]map[string]domain.Response),
		CreatedAt:    now,
	}
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
	}

	coord := NewCoordinator(sess, quiz, s.sessions, s.opts)
	s.registry.Register(coord)
	return coord.Snapshot(), nil
}

// generateCode draws 6-character uppercase alphanumeric codes until one is
// free, bounded by the configured attempt count.
func (s *SessionService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code := s.randomCode()
		if s.registry.CodeInUse(code) {
			continue
		}
		if _, err := s.sessions.ByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			return "", fmt.Errorf("%w: %v", domain.ErrOperationFailed, err)
		}
		return code, nil
	}
	return "", fmt.Errorf("%w: could not allocate a unique join code", domain.ErrOperationFailed)
}

func (s *SessionService) randomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, CodeLength)
	for i := range buf {
		buf[i] = codeCharset[s.rnd.Intn(len(codeCharset))]
	}
	return string(buf)
}

// Coordinator resolves a live coordinator by session id or join code.
func (s *SessionService) Coordinator(sessionRef string) (*Coordinator, error) {
	if c, ok := s.registry.ByID(sessionRef); ok {
		return c, nil
	}
	if c, ok := s.registry.ByCode(sessionRef); ok {
		return c, nil
	}
	return nil, domain.ErrSessionNotFound
}

// Snapshot returns the session state for a ref, falling back to the durable
// store for sessions not coordinated by this process.
func (s *SessionService) Snapshot(ctx context.Context, sessionRef string) (domain.Session, error) {
	if c, err := s.Coordinator(sessionRef); err == nil {
		return c.Snapshot(), nil
	}
	if sess, err := s.sessions.ByID(ctx, sessionRef); err == nil {
		return sess, nil
	}
	return s.sessions.ByCode(ctx, sessionRef)
}

// Join adds a participant to a session.
func (s *SessionService) Join(ctx context.Context, sessionRef string, req JoinRequest) (domain.Participant, error) {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return domain.Participant{}, err
	}
	return c.Join(ctx, req)
}

// SubmitAnswer records an answer for the session's current question.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionRef, participantID, questionID, answer string, timeSpentMs int64) (domain.Response, error) {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return domain.Response{}, err
	}
	return c.Submit(ctx, participantID, questionID, answer, timeSpentMs)
}

// Heartbeat records participant liveness.
func (s *SessionService) Heartbeat(ctx context.Context, sessionRef, participantID string) error {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return err
	}
	return c.Heartbeat(ctx, participantID)
}

// Host controls. Each requires the caller to pass authorization against the
// session before the command reaches the coordinator.

func (s *SessionService) Start(ctx context.Context, sessionRef, callerID string) (domain.Session, error) {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return domain.Session{}, err
	}
	return c.Start(ctx)
}

func (s *SessionService) Pause(ctx context.Context, sessionRef, callerID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Pause(ctx)
}

func (s *SessionService) Resume(ctx context.Context, sessionRef, callerID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Resume(ctx)
}

func (s *SessionService) End(ctx context.Context, sessionRef, callerID string) (domain.Session, error) {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return domain.Session{}, err
	}
	return c.End(ctx)
}

func (s *SessionService) Cancel(ctx context.Context, sessionRef, callerID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Cancel(ctx)
}

func (s *SessionService) Next(ctx context.Context, sessionRef, callerID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Next(ctx)
}

func (s *SessionService) Previous(ctx context.Context, sessionRef, callerID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Previous(ctx)
}

// RemoveParticipant is a host control; removal is only legal before start.
func (s *SessionService) RemoveParticipant(ctx context.Context, sessionRef, callerID, participantID string) error {
	c, err := s.authorized(ctx, sessionRef, callerID)
	if err != nil {
		return err
	}
	return c.Remove(ctx, participantID)
}

// Subscribe attaches a listener to a session's event stream.
func (s *SessionService) Subscribe(sessionRef, participantID string, host bool) (<-chan domain.Event, func(), error) {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := c.Subscribe(participantID, host)
	return ch, cancel, nil
}

// MarkDisconnected flags a dropped connection without removing the
// participant.
func (s *SessionService) MarkDisconnected(ctx context.Context, sessionRef, participantID string) error {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return err
	}
	return c.MarkDisconnected(ctx, participantID)
}

func (s *SessionService) authorized(ctx context.Context, sessionRef, callerID string) (*Coordinator, error) {
	c, err := s.Coordinator(sessionRef)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, callerID, c.Snapshot()); err != nil {
		return nil, err
	}
	return c, nil
}
