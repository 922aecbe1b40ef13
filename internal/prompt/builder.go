// Package prompt builds the provider-agnostic instruction sent to every
// backend. All functions are pure.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quizforge/internal/domain"

	"github.com/samber/lo"
)

const (
	smallTextBudget = 5000
	largeTextBudget = 8000
	// Requests above this count get the larger source budget so each
	// question still has enough material behind it.
	largeCountThreshold = 10

	tokensPerQuestion = 250
	minOutputTokens   = 4096
	maxOutputTokens   = 8192
)

var difficultyDescriptions = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "easy (high-school level, tests general understanding)",
	domain.DifficultyMedium: "medium (university level, needs a good grasp of the details)",
	domain.DifficultyHard:   "hard (expert level, needs in-depth analysis)",
}

var languageNames = map[domain.Language]string{
	domain.LanguageEnglish: "English",
	domain.LanguageFrench:  "French",
}

// TextBudget returns how many characters of source text are embedded for a
// request of count questions.
func TextBudget(count int) int {
	if count > largeCountThreshold {
		return largeTextBudget
	}
	return smallTextBudget
}

// Truncate cuts text to at most budget characters without splitting a rune.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= budget {
		return text
	}
	runes := []rune(text)
	return string(runes[:budget])
}

// MaxTokens estimates the output tokens needed for count questions, with a
// 20% margin, bounded to what the providers accept.
func MaxTokens(count int) int {
	estimated := count * tokensPerQuestion * 6 / 5
	return lo.Clamp(estimated, minOutputTokens, maxOutputTokens)
}

// SystemMessage is the system turn for chat-capable providers.
func SystemMessage(count int) string {
	return fmt.Sprintf(
		"You are a quiz generator that answers in JSON. Generate EXACTLY %d DIFFERENT and UNIQUE questions. "+
			"Reply ONLY with valid JSON, without markdown or any extra text.", count)
}

// Build returns the user instruction for count questions about text.
func Build(text string, count int, difficulty domain.Difficulty, language domain.Language) string {
	source := Truncate(strings.TrimSpace(text), TextBudget(count))

	level, ok := difficultyDescriptions[difficulty]
	if !ok {
		level = difficultyDescriptions[domain.DifficultyMedium]
	}
	lang, ok := languageNames[language]
	if !ok {
		lang = languageNames[domain.LanguageEnglish]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert in creating educational quizzes. Generate EXACTLY %d multiple-choice questions based on the source text below.\n\n", count)
	fmt.Fprintf(&b, "REQUIRED NUMBER OF QUESTIONS: %d, NOT FEWER.\n\n", count)
	b.WriteString("STRICT RULES:\n")
	fmt.Fprintf(&b, "1. Difficulty: %s\n", level)
	fmt.Fprintf(&b, "2. Language of questions, options and explanations: %s\n", lang)
	b.WriteString("3. Every question must have EXACTLY 4 options\n")
	b.WriteString("4. EXACTLY ONE option per question has \"isCorrect\": true\n")
	b.WriteString("5. Questions must come ONLY from the source text and must not repeat each other\n")
	b.WriteString("6. The explanation must reference the source text\n")
	b.WriteString("7. Output JSON only: no markdown, no code fences, no text before or after\n\n")
	b.WriteString("SOURCE TEXT:\n")
	b.WriteString(source)
	b.WriteString("\n\nREQUIRED JSON FORMAT:\n")
	b.WriteString(exampleJSON(difficulty))
	b.WriteString("\n\nRESPOND ONLY WITH THE JSON OBJECT.")
	return b.String()
}

// Messages returns the system and user turns for a request.
func Messages(text string, count int, difficulty domain.Difficulty, language domain.Language) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: SystemMessage(count)},
		{Role: domain.RoleUser, Content: Build(text, count, difficulty, language)},
	}
}

func exampleJSON(difficulty domain.Difficulty) string {
	return fmt.Sprintf(`{
  "questions": [
    {
      "text": "Clear and precise question?",
      "options": [
        {"text": "Correct answer", "isCorrect": true},
        {"text": "Plausible but wrong answer", "isCorrect": false},
        {"text": "Another plausible but wrong answer", "isCorrect": false},
        {"text": "Last plausible but wrong answer", "isCorrect": false}
      ],
      "explanation": "Explanation based on the source text",
      "difficulty": "%s"
    }
  ]
}`, difficulty)
}
