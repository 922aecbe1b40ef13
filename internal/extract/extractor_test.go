package extract

import (
	"testing"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoQuestions = `{"questions":[{"text":"Q1?"},{"text":"Q2?"}]}`

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		count int
	}{
		{name: "plain JSON", raw: twoQuestions, count: 2},
		{name: "surrounding whitespace", raw: "\n\n  " + twoQuestions + "\n", count: 2},
		{name: "json fence", raw: "```json\n" + twoQuestions + "\n```", count: 2},
		{name: "bare fence", raw: "```\n" + twoQuestions + "\n```", count: 2},
		{name: "prose around JSON", raw: "Sure! Here is your quiz:\n" + twoQuestions + "\nGood luck.", count: 2},
		{name: "prose around fence", raw: "Here you go:\n```json\n" + twoQuestions + "\n```\nEnjoy!", count: 2},
		{name: "reasoning block", raw: "<think>I need {braces} here</think>\n" + twoQuestions, count: 2},
		{name: "top-level array", raw: `[{"text":"Q1?"},{"text":"Q2?"},{"text":"Q3?"}]`, count: 3},
		{name: "fenced array", raw: "```json\n[{\"text\":\"Q1?\"}]\n```", count: 1},
		{name: "missing questions field", raw: `{"quiz":"none"}`, count: 0},
		{name: "null questions", raw: `{"questions":null}`, count: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Extract(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, payload.Questions)
			assert.Len(t, payload.Questions, tt.count)
		})
	}
}

func TestExtract_FallsBackWhenFenceIsBroken(t *testing.T) {
	raw := "```json\nnot json at all\n```\n" + twoQuestions
	payload, err := Extract(raw)
	require.NoError(t, err)
	assert.Len(t, payload.Questions, 2)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: "   "},
		{name: "no braces", raw: "I cannot help with that."},
		{name: "reversed braces", raw: "} nothing {"},
		{name: "malformed", raw: `{"questions": [ {"text": "Q1?", } ]}`},
		{name: "truncated", raw: `{"questions": [{"text": "Q1?"}`},
		{name: "wrong questions type", raw: `{"questions": "many"}`},
		{name: "only reasoning", raw: "<think>{\"questions\":[]}</think>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Extract(tt.raw)
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.True(t, domain.HasCode(err, domain.CodeExtraction), "got %v", err)
		})
	}
}

func TestExtract_IsIdempotent(t *testing.T) {
	raw := "Here:\n```json\n" + twoQuestions + "\n```"
	first, err := Extract(raw)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
