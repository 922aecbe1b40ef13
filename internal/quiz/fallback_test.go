package quiz

import (
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	questions := Fallback(3, domain.DifficultyHard)
	require.Len(t, questions, 3)

	for i, q := range questions {
		assert.Equal(t, QuestionID(i+1), q.ID)
		assert.Equal(t, domain.DifficultyHard, q.Difficulty)
		assert.Equal(t, fallbackExplanation, q.Explanation)
		require.Len(t, q.Options, RequiredOptions)
		assert.Equal(t, 1, q.CorrectCount())
		assert.True(t, q.Options[0].IsCorrect)
		assert.Equal(t, q.ID+"_d", q.Options[3].ID)
	}
	assert.Equal(t, "Placeholder question 2?", questions[1].Text)
}

func TestFallback_Bounds(t *testing.T) {
	assert.Len(t, Fallback(0, domain.DifficultyEasy), 1)
	assert.Len(t, Fallback(domain.MaxQuestionCount, domain.DifficultyEasy), domain.MaxQuestionCount)

	q := Fallback(1, "bogus")[0]
	assert.Equal(t, domain.DifficultyMedium, q.Difficulty)
}
