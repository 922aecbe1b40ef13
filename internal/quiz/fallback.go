package quiz

import (
	"fmt"

	"quizforge/internal/domain"
)

const fallbackExplanation = "Generated automatically after a technical error"

// Fallback returns count placeholder questions. It never fails and never
// touches the network; count is raised to 1 if needed.
func Fallback(count int, difficulty domain.Difficulty) []domain.Question {
	if count < domain.MinQuestionCount {
		count = domain.MinQuestionCount
	}
	if !difficulty.Valid() {
		difficulty = domain.DifficultyMedium
	}

	questions := make([]domain.Question, 0, count)
	for i := 1; i <= count; i++ {
		id := QuestionID(i)
		questions = append(questions, domain.Question{
			ID:   id,
			Text: fmt.Sprintf("Placeholder question %d?", i),
			Options: []domain.Option{
				{ID: OptionID(id, 0), Text: "Correct answer", IsCorrect: true},
				{ID: OptionID(id, 1), Text: "Distractor 1"},
				{ID: OptionID(id, 2), Text: "Distractor 2"},
				{ID: OptionID(id, 3), Text: "Distractor 3"},
			},
			Explanation: fallbackExplanation,
			Difficulty:  difficulty,
		})
	}
	return questions
}
