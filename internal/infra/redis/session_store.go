package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-live-service/internal/app"
	"trivia-live-service/internal/domain"
)

// SessionStore persists session snapshots in Redis as JSON documents. Each
// save replaces the whole aggregate atomically and refreshes the TTL; a
// companion code key indexes the join code back to the session id. With a
// shared Redis, a session created on one instance is at least readable from
// the others.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ app.SessionRepository = (*SessionStore)(nil)

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), raw, s.ttl)
	pipe.Set(ctx, s.codeKey(sess.Code), sess.ID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SessionStore) ByID(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return sess, nil
}

func (s *SessionStore) ByCode(ctx context.Context, code string) (domain.Session, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("resolve code %s: %w", code, err)
	}
	return s.ByID(ctx, id)
}

func (s *SessionStore) sessionKey(id string) string {
	return "session:" + id
}

func (s *SessionStore) codeKey(code string) string {
	return "session:code:" + code
}
