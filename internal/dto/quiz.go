package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"quizforge/internal/domain"
)

// GenerateQuizRequest is the body of POST /api/generate
// @Description Source text and generation settings
type GenerateQuizRequest struct {
	Text         string  `json:"text"`
	NumQuestions FlexInt `json:"numQuestions"`
	Difficulty   string  `json:"difficulty"`
	ModelType    string  `json:"modelType"`
	APIKey       string  `json:"apiKey,omitempty"`
	Model        string  `json:"model,omitempty"`
	Language     string  `json:"language,omitempty"`
}

// FlexInt decodes a JSON number or a numeric string such as "5". Existing
// clients send numQuestions both ways.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			*n = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return fmt.Errorf("not an integer: %s", data)
	}
	*n = FlexInt(f)
	return nil
}

// ToDomain maps the wire request onto the generation input.
func (r GenerateQuizRequest) ToDomain() domain.QuizRequest {
	return domain.QuizRequest{
		Text:       r.Text,
		Count:      int(r.NumQuestions),
		Difficulty: domain.Difficulty(r.Difficulty),
		Provider:   domain.ProviderKind(r.ModelType),
		Language:   domain.Language(r.Language),
		Credentials: domain.Credentials{
			APIKey: r.APIKey,
			Model:  r.Model,
		},
	}
}

// GenerateQuizResponse is returned on success
type GenerateQuizResponse struct {
	Questions []domain.Question `json:"questions"`
}

// GenerateQuizFailureResponse carries placeholder questions next to the
// error that caused them, so the client can still render a quiz.
type GenerateQuizFailureResponse struct {
	Error     string            `json:"error"`
	Questions []domain.Question `json:"questions"`
}

// ProviderStatus is one entry of the health report
type ProviderStatus struct {
	Configured bool  `json:"configured"`
	Available  *bool `json:"available,omitempty"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status   string                    `json:"status"`
	Version  string                    `json:"version"`
	Services map[string]ProviderStatus `json:"services"`
}

// ModelsResponse lists the local inference server's models
type ModelsResponse struct {
	Models []domain.ModelInfo `json:"models"`
}
