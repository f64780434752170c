package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestComputeLeaderboardOrdering(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	participants := map[string]Participant{
		// Bob outranks Carol on accuracy despite equal scores.
		"bob":   {ID: "bob", DisplayName: "Bob", Score: 10, CorrectCount: 2, AnswerCount: 2, JoinedAt: base.Add(2 * time.Minute)},
		"carol": {ID: "carol", DisplayName: "Carol", Score: 10, CorrectCount: 2, AnswerCount: 4, JoinedAt: base.Add(time.Minute)},
		"alice": {ID: "alice", DisplayName: "Alice", Score: 15, CorrectCount: 3, AnswerCount: 4, JoinedAt: base},
		// Dave ties Bob on score and accuracy but joined later.
		"dave": {ID: "dave", DisplayName: "Dave", Score: 10, CorrectCount: 2, AnswerCount: 2, JoinedAt: base.Add(3 * time.Minute)},
	}

	ranks := ComputeLeaderboard(participants)

	got := make([]string, len(ranks))
	for i, r := range ranks {
		got[i] = r.ParticipantID
	}
	want := []string{"alice", "bob", "dave", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
	for i, r := range ranks {
		if r.Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, r.Position)
		}
	}
}

func TestComputeLeaderboardIsPure(t *testing.T) {
	participants := map[string]Participant{
		"a": {ID: "a", DisplayName: "A", Score: 3, CorrectCount: 1, AnswerCount: 2},
		"b": {ID: "b", DisplayName: "B", Score: 3, CorrectCount: 2, AnswerCount: 2},
		"c": {ID: "c", DisplayName: "C", Score: 7, CorrectCount: 2, AnswerCount: 3},
	}

	first := ComputeLeaderboard(participants)
	for i := 0; i < 20; i++ {
		if got := ComputeLeaderboard(participants); !reflect.DeepEqual(got, first) {
			t.Fatalf("leaderboard not deterministic on run %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestComputeLeaderboardEmptyRoster(t *testing.T) {
	if ranks := ComputeLeaderboard(nil); len(ranks) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", ranks)
	}
}
