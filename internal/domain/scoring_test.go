package domain

import "testing"

func TestScoreChoiceQuestions(t *testing.T) {
	q := Question{
		ID:   "q1",
		Type: QuestionQCM,
		Options: []Option{
			{ID: "o1", Text: "3", Correct: false},
			{ID: "o2", Text: "4", Correct: true},
		},
		Points: 5,
	}

	if correct, points := Score(q, "o2"); !correct || points != 5 {
		t.Fatalf("expected correct with 5 points, got correct=%v points=%d", correct, points)
	}
	if correct, points := Score(q, "o1"); correct || points != 0 {
		t.Fatalf("expected incorrect with 0 points, got correct=%v points=%d", correct, points)
	}
	if correct, _ := Score(q, "nonexistent"); correct {
		t.Fatalf("unknown option must not score")
	}

	tf := Question{
		ID:   "q2",
		Type: QuestionTrueFalse,
		Options: []Option{
			{ID: "true", Correct: true},
			{ID: "false", Correct: false},
		},
	}
	// zero Points defaults to 1
	if correct, points := Score(tf, "true"); !correct || points != 1 {
		t.Fatalf("expected correct with default 1 point, got correct=%v points=%d", correct, points)
	}
}

func TestScoreFreeTextIsTrimmedAndCaseFolded(t *testing.T) {
	q := Question{ID: "q1", Type: QuestionFreeText, CorrectAnswer: "Paris", Points: 2}

	for _, answer := range []string{"Paris", "paris", "  PARIS  "} {
		if correct, points := Score(q, answer); !correct || points != 2 {
			t.Fatalf("expected %q to match, got correct=%v points=%d", answer, correct, points)
		}
	}
	// exact match only, no fuzzy matching
	if correct, _ := Score(q, "Pariss"); correct {
		t.Fatalf("near-miss answer must not match")
	}
	if correct, _ := Score(Question{Type: QuestionFreeText}, ""); correct {
		t.Fatalf("empty answer key must never match")
	}
}

func TestScoreWordCloudNeverScores(t *testing.T) {
	q := Question{ID: "q1", Type: QuestionWordCloud, Points: 10}
	if correct, points := Score(q, "anything"); correct || points != 0 {
		t.Fatalf("word cloud must not score, got correct=%v points=%d", correct, points)
	}
}
