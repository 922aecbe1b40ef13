package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"quizforge/internal/domain"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Ollama is the local inference server backend. Generation goes through
// langchaingo; the model catalog is read from /api/tags.
type Ollama struct {
	settings Settings
	llm      *ollama.LLM
}

func NewOllama(s Settings) (*Ollama, error) {
	s = s.withDefaults()
	if s.BaseURL == "" {
		s.BaseURL = defaultOllamaBaseURL
	}
	if s.Model == "" {
		return nil, domain.NewProviderError(domain.ProviderOllama, domain.ErrKindModelNotFound, "no model configured", nil)
	}
	if _, err := url.Parse(s.BaseURL); err != nil {
		return nil, domain.NewProviderError(domain.ProviderOllama, domain.ErrKindUnavailable, "invalid server URL", err)
	}

	llm, err := ollama.New(
		ollama.WithServerURL(s.BaseURL),
		ollama.WithModel(s.Model),
		ollama.WithHTTPClient(s.HTTPClient),
		ollama.WithFormat("json"),
	)
	if err != nil {
		return nil, classify(domain.ProviderOllama, fmt.Errorf("failed to create Ollama client: %w", err))
	}
	return &Ollama{settings: s, llm: llm}, nil
}

func (o *Ollama) Kind() domain.ProviderKind { return domain.ProviderOllama }
func (o *Ollama) Model() string             { return o.settings.Model }

func toLangchainMessages(messages []domain.Message) []llms.MessageContent {
	return lo.Map(messages, func(m domain.Message, _ int) llms.MessageContent {
		role := llms.ChatMessageTypeHuman
		if m.Role == domain.RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		return llms.TextParts(role, m.Content)
	})
}

func callOptions(opts domain.GenerateOptions) []llms.CallOption {
	callOpts := []llms.CallOption{
		llms.WithTemperature(temperatureOf(opts)),
		llms.WithTopP(defaultTopP),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	return callOpts
}

func (o *Ollama) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	start := time.Now()
	callOpts := append(callOptions(opts), llms.WithTopK(defaultTopK))
	resp, err := o.llm.GenerateContent(ctx, toLangchainMessages(messages), callOpts...)
	if err != nil {
		return "", classify(domain.ProviderOllama, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", emptyResponseError(domain.ProviderOllama)
	}

	o.settings.Logger.Info("Ollama generation finished",
		zap.String("model", o.settings.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("length", len(resp.Choices[0].Content)))
	return resp.Choices[0].Content, nil
}

type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

func (o *Ollama) tags(ctx context.Context) (*tagsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.settings.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, classify(domain.ProviderOllama, err)
	}
	resp, err := o.settings.HTTPClient.Do(req)
	if err != nil {
		return nil, classify(domain.ProviderOllama, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, statusError(domain.ProviderOllama, resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, domain.NewProviderError(domain.ProviderOllama, domain.ErrKindUnknown, "malformed model catalog", err)
	}
	return &tags, nil
}

// ListModels returns the server's installed models.
func (o *Ollama) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, o.settings.ProbeTimeout)
	defer cancel()

	tags, err := o.tags(ctx)
	if err != nil {
		return nil, err
	}
	models := make([]domain.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, domain.ModelInfo{Name: m.Name, Size: m.Size, ModifiedAt: m.ModifiedAt})
	}
	return models, nil
}

// IsAvailable reports whether the server answers /api/tags.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	return probe(ctx, o.settings, domain.ProviderOllama, func(ctx context.Context) error {
		_, err := o.tags(ctx)
		return err
	})
}
