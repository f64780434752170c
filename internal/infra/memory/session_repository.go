package memory

import (
	"context"
	"sync"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// SessionRepository is an in-memory implementation of app.SessionRepository.
// Snapshots are stored by value, so a Save is atomic from the point of view
// of concurrent readers.
type SessionRepository struct {
	mu       sync.RWMutex
	byID     map[string]domain.Session
	idByCode map[string]string
}

var _ app.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		byID:     make(map[string]domain.Session),
		idByCode: make(map[string]string),
	}
}

func (r *SessionRepository) Save(_ context.Context, sess domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sess.ID] = sess
	r.idByCode[sess.Code] = sess.ID
	return nil
}

func (r *SessionRepository) ByID(_ context.Context, id string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byID[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (r *SessionRepository) ByCode(ctx context.Context, code string) (domain.Session, error) {
	r.mu.RLock()
	id, ok := r.idByCode[code]
	r.mu.RUnlock()
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return r.ByID(ctx, id)
}
