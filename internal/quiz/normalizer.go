// Package quiz turns raw model output into quiz questions that satisfy the
// schema: validation, repair, duplicate filtering and the fallback set.
package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// OptionPolicy decides how many options a question must carry.
type OptionPolicy string

const (
	// PolicyStrict requires exactly RequiredOptions options.
	PolicyStrict OptionPolicy = "strict"
	// PolicyLenient accepts any question with at least MinLenientOptions.
	PolicyLenient OptionPolicy = "lenient"

	RequiredOptions   = 4
	MinLenientOptions = 2
)

// ParseOptionPolicy defaults to strict.
func ParseOptionPolicy(s string) OptionPolicy {
	if OptionPolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyLenient {
		return PolicyLenient
	}
	return PolicyStrict
}

// QuestionID is the id of the question at 1-based position.
func QuestionID(position int) string {
	return fmt.Sprintf("q%d", position)
}

// OptionID is the id of the option at 0-based index within question.
func OptionID(questionID string, index int) string {
	if index < 26 {
		return fmt.Sprintf("%s_%c", questionID, 'a'+index)
	}
	return fmt.Sprintf("%s_%d", questionID, index+1)
}

type rawOption struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	IsCorrect flexBool `json:"isCorrect"`
}

type rawQuestion struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	Options     []rawOption `json:"options"`
	Explanation string      `json:"explanation"`
	Difficulty  string      `json:"difficulty"`
}

// flexBool accepts true/false as well as "true"/"false" and 0/1, which
// smaller models emit from time to time.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(string(bytes.Trim(data, `"`))) {
	case "true", "1", "yes":
		*b = true
	case "false", "0", "no", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// Normalizer validates and repairs raw questions. It holds no per-request
// state and is safe for concurrent use.
type Normalizer struct {
	policy OptionPolicy
	logger *zap.Logger
}

func NewNormalizer(policy OptionPolicy, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy != PolicyLenient {
		policy = PolicyStrict
	}
	return &Normalizer{policy: policy, logger: logger}
}

func (n *Normalizer) Policy() OptionPolicy {
	return n.policy
}

// Normalize decodes raw, drops duplicates, then validates and repairs
// questions in order until count are accepted. Ids are assigned by output
// position. It fails with NO_VALID_QUESTIONS when nothing survives.
func (n *Normalizer) Normalize(raw []json.RawMessage, count int, difficulty domain.Difficulty) ([]domain.Question, error) {
	decoded := make([]rawQuestion, 0, len(raw))
	for i, item := range raw {
		var rq rawQuestion
		if err := json.Unmarshal(item, &rq); err != nil {
			n.logger.Warn("Undecodable question dropped", zap.Int("position", i+1), zap.Error(err))
			continue
		}
		decoded = append(decoded, rq)
	}

	unique := Dedup(decoded, func(rq rawQuestion) string { return rq.Text }, n.logger)
	if dropped := len(decoded) - len(unique); dropped > 0 {
		n.logger.Info("Duplicate questions filtered", zap.Int("dropped", dropped), zap.Int("remaining", len(unique)))
	}

	questions := make([]domain.Question, 0, min(count, len(unique)))
	for i, rq := range unique {
		if len(questions) == count {
			break
		}
		q, reason := n.normalizeOne(rq, len(questions)+1, difficulty)
		if reason != "" {
			n.logger.Warn("Invalid question dropped",
				zap.Int("position", i+1),
				zap.String("reason", reason),
				zap.String("text", preview(rq.Text)))
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, domain.NewNoValidQuestionsError(len(raw))
	}
	if len(questions) < count {
		n.logger.Warn("Fewer questions than requested",
			zap.Int("requested", count),
			zap.Int("generated", len(questions)))
	}
	return questions, nil
}

// normalizeOne returns the repaired question, or a non-empty reason when the
// question cannot be repaired.
func (n *Normalizer) normalizeOne(rq rawQuestion, position int, difficulty domain.Difficulty) (domain.Question, string) {
	text := strings.TrimSpace(rq.Text)
	if text == "" {
		return domain.Question{}, "missing question text"
	}
	if len(rq.Options) == 0 {
		return domain.Question{}, "missing options"
	}
	switch n.policy {
	case PolicyLenient:
		if len(rq.Options) < MinLenientOptions {
			return domain.Question{}, fmt.Sprintf("%d options, need at least %d", len(rq.Options), MinLenientOptions)
		}
	default:
		if len(rq.Options) != RequiredOptions {
			return domain.Question{}, fmt.Sprintf("%d options, need exactly %d", len(rq.Options), RequiredOptions)
		}
	}

	id := QuestionID(position)
	options := make([]domain.Option, len(rq.Options))
	for i, ro := range rq.Options {
		optText := strings.TrimSpace(ro.Text)
		if optText == "" {
			return domain.Question{}, fmt.Sprintf("option %d has no text", i+1)
		}
		options[i] = domain.Option{
			ID:        OptionID(id, i),
			Text:      optText,
			IsCorrect: bool(ro.IsCorrect),
		}
	}
	n.repairCorrectness(options, position)

	qDifficulty := domain.Difficulty(strings.ToLower(strings.TrimSpace(rq.Difficulty)))
	if !qDifficulty.Valid() {
		qDifficulty = difficulty
	}

	return domain.Question{
		ID:          id,
		Text:        text,
		Options:     options,
		Explanation: strings.TrimSpace(rq.Explanation),
		Difficulty:  qDifficulty,
	}, ""
}

// repairCorrectness leaves exactly one correct option: the first flagged
// one, or the first option when none is flagged.
func (n *Normalizer) repairCorrectness(options []domain.Option, position int) {
	correct := 0
	for i := range options {
		if !options[i].IsCorrect {
			continue
		}
		correct++
		if correct > 1 {
			options[i].IsCorrect = false
		}
	}

	switch {
	case correct == 0:
		options[0].IsCorrect = true
		n.logger.Warn("No correct option, first option forced correct", zap.Int("question", position))
	case correct > 1:
		n.logger.Warn("Several correct options, kept the first", zap.Int("question", position), zap.Int("flagged", correct))
	}
}

func preview(s string) string {
	const maxLen = 50
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
