// Package extract pulls the quiz JSON document out of free-form model
// output. The search is heuristic; callers only see a Payload or an
// EXTRACTION_ERROR.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"quizforge/internal/domain"
)

// Payload is the parsed model document. Questions stay raw until the
// normalizer decides what to keep.
type Payload struct {
	Questions []json.RawMessage `json:"questions"`
}

var (
	fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// Extract locates and parses the JSON object embedded in raw. A bare JSON
// array is accepted as the question list. A missing "questions" field yields
// an empty list.
func Extract(raw string) (*Payload, error) {
	cleaned := strings.TrimSpace(thinkPattern.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return nil, domain.NewExtractionError("empty model response", nil)
	}

	// Fenced content first; the whole text is scanned when the fence holds
	// nothing parseable.
	if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
		if payload, err := parseCandidate(m[1]); err == nil {
			return payload, nil
		}
	}
	return parseCandidate(cleaned)
}

func parseCandidate(text string) (*Payload, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "[") {
		var questions []json.RawMessage
		if err := json.Unmarshal([]byte(text), &questions); err == nil {
			return &Payload{Questions: nonNil(questions)}, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, domain.NewExtractionError("no JSON object found in model response", nil)
	}
	span := text[start : end+1]

	var payload Payload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil, domain.NewExtractionError("model response is not valid JSON", err)
	}
	payload.Questions = nonNil(payload.Questions)
	return &payload, nil
}

func nonNil(q []json.RawMessage) []json.RawMessage {
	if q == nil {
		return []json.RawMessage{}
	}
	return q
}
