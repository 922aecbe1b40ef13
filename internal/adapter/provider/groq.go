package provider

import (
	"context"
	"fmt"

	"quizforge/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// Groq speaks the OpenAI wire protocol on its own base URL.
type Groq struct {
	settings Settings
	llm      *openai.LLM
}

func NewGroq(s Settings) (*Groq, error) {
	s = s.withDefaults()
	if s.APIKey == "" {
		return nil, missingKeyError(domain.ProviderGroq)
	}
	if s.BaseURL == "" {
		s.BaseURL = defaultGroqBaseURL
	}
	if s.Model == "" {
		s.Model = "llama-3.3-70b-versatile"
	}

	llm, err := openai.New(
		openai.WithToken(s.APIKey),
		openai.WithBaseURL(s.BaseURL),
		openai.WithModel(s.Model),
		openai.WithHTTPClient(s.HTTPClient),
	)
	if err != nil {
		return nil, classify(domain.ProviderGroq, fmt.Errorf("failed to create Groq client: %w", err))
	}
	return &Groq{settings: s, llm: llm}, nil
}

func (g *Groq) Kind() domain.ProviderKind { return domain.ProviderGroq }
func (g *Groq) Model() string             { return g.settings.Model }

func (g *Groq) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	resp, err := g.llm.GenerateContent(ctx, toLangchainMessages(messages), callOptions(opts)...)
	if err != nil {
		return "", classify(domain.ProviderGroq, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", emptyResponseError(domain.ProviderGroq)
	}

	choice := resp.Choices[0]
	if choice.StopReason == "length" {
		g.settings.Logger.Warn("Groq response truncated by token limit",
			zap.String("model", g.settings.Model),
			zap.Int("max_tokens", opts.MaxTokens))
	}
	return choice.Content, nil
}

// IsAvailable sends a tiny chat request.
func (g *Groq) IsAvailable(ctx context.Context) bool {
	return probe(ctx, g.settings, domain.ProviderGroq, func(ctx context.Context) error {
		_, err := g.llm.GenerateContent(ctx,
			[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "Hello")},
			llms.WithMaxTokens(10),
			llms.WithTemperature(0.1),
		)
		return err
	})
}
