package domain

import (
	"strings"

	"github.com/samber/lo"
)

const (
	MinQuestionCount     = 1
	MaxQuestionCount     = 50
	DefaultQuestionCount = 5
)

// Difficulty is the requested difficulty level of a quiz
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	return lo.Contains(difficulties, d)
}

// ParseDifficulty returns the difficulty for s, defaulting to medium.
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return DifficultyMedium
	}
	return d
}

// Language is the output language of the generated questions
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

// ParseLanguage returns the language for s, defaulting to English.
func ParseLanguage(s string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case LanguageFrench:
		return LanguageFrench
	default:
		return LanguageEnglish
	}
}

// Credentials carries optional per-request provider overrides.
type Credentials struct {
	APIKey string
	Model  string
}

// QuizRequest is the input of a single quiz generation call.
type QuizRequest struct {
	Text        string
	Count       int
	Difficulty  Difficulty
	Provider    ProviderKind
	Language    Language
	Credentials Credentials
}

// Normalize coerces the request into valid values. Count is clamped into
// [MinQuestionCount, MaxQuestionCount], unknown difficulty becomes medium and
// an unknown provider becomes defaultProvider. Empty text is an input error.
func (r QuizRequest) Normalize(defaultProvider ProviderKind) (QuizRequest, error) {
	if strings.TrimSpace(r.Text) == "" {
		return r, NewInputError("source text is required")
	}

	if r.Count == 0 {
		r.Count = DefaultQuestionCount
	}
	r.Count = lo.Clamp(r.Count, MinQuestionCount, MaxQuestionCount)

	if !r.Difficulty.Valid() {
		r.Difficulty = ParseDifficulty(string(r.Difficulty))
	}
	if !r.Provider.Valid() {
		parsed, ok := ParseProviderKind(string(r.Provider))
		if !ok {
			parsed = defaultProvider
		}
		r.Provider = parsed
	}
	r.Language = ParseLanguage(string(r.Language))
	r.Credentials.APIKey = strings.TrimSpace(r.Credentials.APIKey)
	r.Credentials.Model = strings.TrimSpace(r.Credentials.Model)
	return r, nil
}

// Option is one answer choice of a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a normalized multiple-choice question.
// Exactly one of its options is correct.
type Question struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Options     []Option   `json:"options"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
}

// CorrectCount returns how many options are flagged correct.
func (q Question) CorrectCount() int {
	return lo.CountBy(q.Options, func(o Option) bool { return o.IsCorrect })
}

// QuizResult is what the generation pipeline hands back to the route layer.
// When Fallback is set, Questions holds placeholder questions and Error
// describes the failure that caused it.
type QuizResult struct {
	Questions []Question
	Error     string
	Fallback  bool
	Provider  ProviderKind
	Model     string
	Attempts  int
}
