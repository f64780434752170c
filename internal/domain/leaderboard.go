package domain

import "sort"

// Rank is one leaderboard row.
type Rank struct {
	Position      int     `json:"position"`
	ParticipantID string  `json:"participantId"`
	DisplayName   string  `json:"displayName"`
	Score         int     `json:"score"`
	Accuracy      float64 `json:"accuracy"`
}

// ComputeLeaderboard ranks participants by score descending, tie-broken by
// accuracy (correct/answered) descending, then by join time ascending. It is
// recomputed from the roster on every call rather than patched
// incrementally, so it cannot drift from the ledger.
func ComputeLeaderboard(participants map[string]Participant) []Rank {
	ordered := make([]Participant, 0, len(participants))
	for _, p := range participants {
		ordered = append(ordered, p)
	}

	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		accA, accB := accuracy(a), accuracy(b)
		if accA != accB {
			return accA > accB
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})

	ranks := make([]Rank, len(ordered))
	for i, p := range ordered {
		ranks[i] = Rank{
			Position:      i + 1,
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
			Accuracy:      accuracy(p),
		}
	}
	return ranks
}

func accuracy(p Participant) float64 {
	if p.AnswerCount == 0 {
		return 0
	}
	return float64(p.CorrectCount) / float64(p.AnswerCount)
}
