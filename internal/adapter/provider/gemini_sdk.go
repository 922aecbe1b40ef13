package provider

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiSDK talks to Gemini through the vendor client library.
type GeminiSDK struct {
	settings Settings
	opts     []option.ClientOption
}

func NewGeminiSDK(s Settings, opts ...option.ClientOption) (*GeminiSDK, error) {
	s = s.withDefaults()
	if s.APIKey == "" {
		return nil, missingKeyError(domain.ProviderGemini)
	}
	if s.Model == "" {
		s.Model = "gemini-2.5-flash"
	}
	return &GeminiSDK{settings: s, opts: opts}, nil
}

func (g *GeminiSDK) Kind() domain.ProviderKind { return domain.ProviderGemini }
func (g *GeminiSDK) Model() string             { return g.settings.Model }

func (g *GeminiSDK) client(ctx context.Context) (*genai.Client, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.settings.APIKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, classify(domain.ProviderGemini, fmt.Errorf("failed to create Gemini client: %w", err))
	}
	return client, nil
}

func (g *GeminiSDK) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.settings.Timeout)
	defer cancel()

	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	system, user := splitMessages(messages)
	model := client.GenerativeModel(g.settings.Model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	model.SetTemperature(float32(temperatureOf(opts)))
	model.SetTopP(defaultTopP)
	model.SetTopK(defaultTopK)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", classify(domain.ProviderGemini, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", emptyResponseError(domain.ProviderGemini)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", emptyResponseError(domain.ProviderGemini)
	}
	g.settings.Logger.Debug("Gemini response received",
		zap.String("model", g.settings.Model),
		zap.Int("length", sb.Len()))
	return sb.String(), nil
}

// IsAvailable fetches the model metadata.
func (g *GeminiSDK) IsAvailable(ctx context.Context) bool {
	return probe(ctx, g.settings, domain.ProviderGemini, func(ctx context.Context) error {
		client, err := g.client(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		_, err = client.GenerativeModel(g.settings.Model).Info(ctx)
		return err
	})
}
