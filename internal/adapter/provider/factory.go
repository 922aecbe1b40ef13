package provider

import (
	"net/http"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"go.uber.org/zap"
)

// Factory builds adapters from the startup configuration. Request
// credentials override the configured key and model for that call only.
type Factory struct {
	cfg        config.ProvidersConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFactory(cfg config.ProvidersConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, httpClient: &http.Client{}, logger: logger}
}

// WithHTTPClient returns a copy of the factory that uses client for every
// HTTP-based adapter.
func (f *Factory) WithHTTPClient(client *http.Client) *Factory {
	clone := *f
	clone.httpClient = client
	return &clone
}

func (f *Factory) settings(kind domain.ProviderKind, creds domain.Credentials) Settings {
	pc, _ := f.cfg.Provider(string(kind))
	s := Settings{
		APIKey:       pc.APIKey,
		BaseURL:      pc.BaseURL,
		Model:        pc.Model,
		Timeout:      pc.Timeout,
		ProbeTimeout: pc.ProbeTimeout,
		HTTPClient:   f.httpClient,
		Logger:       f.logger.With(zap.String("provider", string(kind))),
	}
	if creds.APIKey != "" {
		s.APIKey = creds.APIKey
	}
	if creds.Model != "" {
		s.Model = creds.Model
	}
	return s
}

func (f *Factory) New(kind domain.ProviderKind, creds domain.Credentials) (domain.Provider, error) {
	s := f.settings(kind, creds)
	switch kind {
	case domain.ProviderGemini:
		return build(NewGeminiSDK(s))
	case domain.ProviderGeminiREST:
		return build(NewGeminiREST(s))
	case domain.ProviderChatGPT:
		return build(NewChatGPT(s))
	case domain.ProviderOllama:
		return build(NewOllama(s))
	case domain.ProviderGroq:
		return build(NewGroq(s))
	default:
		return nil, domain.NewProviderError(kind, domain.ErrKindUnknown, "unsupported provider", nil)
	}
}

// Configured reports whether kind can be used without request credentials.
// The local server needs no key.
func (f *Factory) Configured(kind domain.ProviderKind) bool {
	pc, ok := f.cfg.Provider(string(kind))
	if !ok {
		return false
	}
	if kind == domain.ProviderOllama {
		return pc.BaseURL != "" && pc.Model != ""
	}
	return pc.APIKey != ""
}

// build keeps a failed constructor from leaking a typed nil.
func build[T domain.Provider](p T, err error) (domain.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

var (
	_ domain.ProviderFactory = (*Factory)(nil)

	_ domain.AvailabilityChecker = (*GeminiSDK)(nil)
	_ domain.AvailabilityChecker = (*GeminiREST)(nil)
	_ domain.AvailabilityChecker = (*ChatGPT)(nil)
	_ domain.AvailabilityChecker = (*Ollama)(nil)
	_ domain.AvailabilityChecker = (*Groq)(nil)
	_ domain.ModelLister         = (*Ollama)(nil)
)
