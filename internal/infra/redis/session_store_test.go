package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-live-service/internal/domain"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	sess := domain.Session{
		ID:     "s1",
		Code:   "ABC123",
		Title:  "Friday quiz",
		Status: domain.StatusActive,
		HostID: "host-1",
		Participants: map[string]domain.Participant{
			"p1": {ID: "p1", DisplayName: "Alice", Score: 5},
		},
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("session:s1") {
		t.Fatalf("expected session key to be set")
	}
	if !mr.Exists("session:code:ABC123") {
		t.Fatalf("expected code key to be set")
	}

	byID, err := store.ByID(ctx, "s1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID.Status != domain.StatusActive || byID.Participants["p1"].Score != 5 {
		t.Fatalf("unexpected session %+v", byID)
	}

	byCode, err := store.ByCode(ctx, "ABC123")
	if err != nil {
		t.Fatalf("by code: %v", err)
	}
	if byCode.ID != "s1" {
		t.Fatalf("unexpected session %+v", byCode)
	}
}

func TestSessionStoreNotFound(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	if _, err := store.ByID(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.ByCode(ctx, "ZZZZZZ"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStoreExpiresWithTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, domain.Session{ID: "s1", Code: "ABC123"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.ByID(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expiry after TTL, got %v", err)
	}
}
