package provider

import (
	"context"

	"quizforge/internal/domain"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatGPT is the pay-per-token chat completion backend.
type ChatGPT struct {
	settings Settings
	client   *openai.Client
}

func NewChatGPT(s Settings) (*ChatGPT, error) {
	s = s.withDefaults()
	if s.APIKey == "" {
		return nil, missingKeyError(domain.ProviderChatGPT)
	}
	if s.Model == "" {
		s.Model = openai.GPT4Turbo
	}

	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	cfg.HTTPClient = s.HTTPClient

	return &ChatGPT{settings: s, client: openai.NewClientWithConfig(cfg)}, nil
}

func (c *ChatGPT) Kind() domain.ProviderKind { return domain.ProviderChatGPT }
func (c *ChatGPT) Model() string             { return c.settings.Model }

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func (c *ChatGPT) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.settings.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperatureOf(opts)),
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(domain.ProviderChatGPT, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", emptyResponseError(domain.ProviderChatGPT)
	}

	c.settings.Logger.Debug("ChatGPT response received",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

// IsAvailable lists the account's models, which requires a valid key.
func (c *ChatGPT) IsAvailable(ctx context.Context) bool {
	return probe(ctx, c.settings, domain.ProviderChatGPT, func(ctx context.Context) error {
		_, err := c.client.ListModels(ctx)
		return err
	})
}
