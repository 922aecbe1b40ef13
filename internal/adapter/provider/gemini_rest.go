package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiREST calls the generateContent endpoint directly.
type GeminiREST struct {
	settings Settings
}

func NewGeminiREST(s Settings) (*GeminiREST, error) {
	s = s.withDefaults()
	if s.APIKey == "" {
		return nil, missingKeyError(domain.ProviderGeminiREST)
	}
	if s.BaseURL == "" {
		s.BaseURL = defaultGeminiBaseURL
	}
	if s.Model == "" {
		s.Model = "gemini-1.5-flash"
	}
	return &GeminiREST{settings: s}, nil
}

func (g *GeminiREST) Kind() domain.ProviderKind { return domain.ProviderGeminiREST }
func (g *GeminiREST) Model() string             { return g.settings.Model }

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type restRequest struct {
	Contents          []restContent        `json:"contents"`
	SystemInstruction *restContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  restGenerationConfig `json:"generationConfig"`
}

type restResponse struct {
	Candidates []struct {
		Content      restContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
}

func (g *GeminiREST) modelURL() string {
	return fmt.Sprintf("%s/v1beta/models/%s", g.settings.BaseURL, url.PathEscape(g.settings.Model))
}

func (g *GeminiREST) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	system, user := splitMessages(messages)
	body := restRequest{
		Contents: []restContent{{Role: "user", Parts: []restPart{{Text: user}}}},
		GenerationConfig: restGenerationConfig{
			Temperature:     temperatureOf(opts),
			TopP:            defaultTopP,
			TopK:            defaultTopK,
			MaxOutputTokens: opts.MaxTokens,
		},
	}
	if system != "" {
		body.SystemInstruction = &restContent{Parts: []restPart{{Text: system}}}
	}
	if opts.JSONMode {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", domain.NewProviderError(domain.ProviderGeminiREST, domain.ErrKindUnknown, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.modelURL()+":generateContent", bytes.NewReader(payload))
	if err != nil {
		return "", domain.NewProviderError(domain.ProviderGeminiREST, domain.ErrKindUnknown, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.settings.APIKey)

	resp, err := g.settings.HTTPClient.Do(req)
	if err != nil {
		return "", classify(domain.ProviderGeminiREST, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(domain.ProviderGeminiREST, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(domain.ProviderGeminiREST, resp.StatusCode, string(raw))
	}

	var parsed restResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.NewProviderError(domain.ProviderGeminiREST, domain.ErrKindUnknown, "malformed response envelope", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", emptyResponseError(domain.ProviderGeminiREST)
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", emptyResponseError(domain.ProviderGeminiREST)
	}
	if reason := parsed.Candidates[0].FinishReason; reason == "MAX_TOKENS" {
		g.settings.Logger.Warn("Gemini response truncated by token limit",
			zap.String("model", g.settings.Model),
			zap.Int("max_tokens", opts.MaxTokens))
	}
	return sb.String(), nil
}

// IsAvailable fetches the model resource.
func (g *GeminiREST) IsAvailable(ctx context.Context) bool {
	return probe(ctx, g.settings, domain.ProviderGeminiREST, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.modelURL(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("x-goog-api-key", g.settings.APIKey)
		resp, err := g.settings.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return statusError(domain.ProviderGeminiREST, resp.StatusCode, "")
		}
		return nil
	})
}
