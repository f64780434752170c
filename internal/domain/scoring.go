package domain

import "strings"

// Score evaluates a submitted answer against a question. It is pure: the
// same question and answer always yield the same result.
//
// Choice questions (qcm, true_false) match the submitted answer against the
// option flagged correct, by option ID. Free-text questions match the stored
// correct answer after trimming and case folding; there is deliberately no
// fuzzy matching. Word-cloud questions collect answers without scoring.
func Score(q Question, answer string) (correct bool, points int) {
	awarded := q.Points
	if awarded == 0 {
		awarded = 1
	}

	switch q.Type {
	case QuestionQCM, QuestionTrueFalse:
		for _, opt := range q.Options {
			if opt.Correct && opt.ID == answer {
				return true, awarded
			}
		}
		return false, 0
	case QuestionFreeText:
		want := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
		got := strings.ToLower(strings.TrimSpace(answer))
		if want != "" && want == got {
			return true, awarded
		}
		return false, 0
	case QuestionWordCloud:
		return false, 0
	default:
		return false, 0
	}
}
