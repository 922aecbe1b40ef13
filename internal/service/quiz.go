package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/extract"
	"quizforge/internal/prompt"
	"quizforge/internal/quiz"
	"quizforge/internal/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuizGenerator is the use case behind POST /api/generate and the health
// route.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, req domain.QuizRequest) (*domain.QuizResult, error)
	ProviderStatus(ctx context.Context, probe bool) map[domain.ProviderKind]ProviderState
}

// ProviderState is the health of one backend. Available is nil when no
// probe was run.
type ProviderState struct {
	Configured bool  `json:"configured"`
	Available  *bool `json:"available,omitempty"`
}

type quizService struct {
	factory         domain.ProviderFactory
	retrier         *retry.Controller
	normalizer      *quiz.Normalizer
	defaultProvider domain.ProviderKind
	defaultLanguage domain.Language
	temperature     float64
	logger          *zap.Logger
}

// NewQuizService wires the generation pipeline.
func NewQuizService(
	factory domain.ProviderFactory,
	retrier *retry.Controller,
	normalizer *quiz.Normalizer,
	cfg *config.Config,
	logger *zap.Logger,
) QuizGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultProvider, ok := domain.ParseProviderKind(cfg.Providers.Default)
	if !ok {
		defaultProvider = domain.ProviderGemini
	}
	return &quizService{
		factory:         factory,
		retrier:         retrier,
		normalizer:      normalizer,
		defaultProvider: defaultProvider,
		defaultLanguage: domain.ParseLanguage(cfg.Quiz.Language),
		temperature:     cfg.Quiz.Temperature,
		logger:          logger,
	}
}

// GenerateQuiz runs prompt, provider, extraction and normalization. Only an
// invalid request is returned as an error; every later failure yields the
// placeholder set with Fallback set and the cause in Error.
func (s *quizService) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (*domain.QuizResult, error) {
	if strings.TrimSpace(string(req.Language)) == "" {
		req.Language = s.defaultLanguage
	}
	req, err := req.Normalize(s.defaultProvider)
	if err != nil {
		return nil, err
	}

	l := s.logger.With(
		zap.String("provider", string(req.Provider)),
		zap.Int("count", req.Count),
		zap.String("difficulty", string(req.Difficulty)))
	result := &domain.QuizResult{Provider: req.Provider}
	start := time.Now()

	p, err := s.factory.New(req.Provider, req.Credentials)
	if err != nil {
		return s.fallback(l, req, result, err), nil
	}
	result.Model = p.Model()
	l = l.With(zap.String("model", result.Model))
	l.Info("Generating quiz", zap.Int("text_length", len(req.Text)))

	messages := prompt.Messages(req.Text, req.Count, req.Difficulty, req.Language)
	opts := domain.GenerateOptions{
		Temperature: s.temperature,
		MaxTokens:   prompt.MaxTokens(req.Count),
		JSONMode:    true,
	}

	raw, attempts, err := s.retrier.Do(ctx, func(ctx context.Context, attempt int) (string, error) {
		return p.Generate(ctx, messages, opts)
	})
	result.Attempts = attempts
	if err != nil {
		return s.fallback(l, req, result, err), nil
	}

	payload, err := extract.Extract(raw)
	if err != nil {
		l.Debug("Unparseable provider output", zap.String("raw", truncateForLog(raw)))
		return s.fallback(l, req, result, err), nil
	}

	questions, err := s.normalizer.Normalize(payload.Questions, req.Count, req.Difficulty)
	if err != nil {
		return s.fallback(l, req, result, err), nil
	}

	result.Questions = questions
	l.Info("Quiz generated",
		zap.Int("questions", len(questions)),
		zap.Int("received", len(payload.Questions)),
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *quizService) fallback(l *zap.Logger, req domain.QuizRequest, result *domain.QuizResult, cause error) *domain.QuizResult {
	var pe *domain.ProviderError
	if errors.As(cause, &pe) {
		cause = domain.NewLLMServiceError(cause)
	}
	l.Error("Quiz generation failed, serving placeholder questions",
		zap.Int("attempts", result.Attempts),
		zap.String("kind", string(domain.ProviderErrorKindOf(cause))),
		zap.Error(cause))

	result.Questions = quiz.Fallback(req.Count, req.Difficulty)
	result.Fallback = true
	result.Error = cause.Error()
	return result
}

// ProviderStatus reports which providers are configured and, with probe,
// runs their availability checks concurrently.
func (s *quizService) ProviderStatus(ctx context.Context, probe bool) map[domain.ProviderKind]ProviderState {
	states := make([]ProviderState, len(domain.ProviderKinds))
	for i, kind := range domain.ProviderKinds {
		states[i].Configured = s.factory.Configured(kind)
	}

	if probe {
		g, gctx := errgroup.WithContext(ctx)
		for i, kind := range domain.ProviderKinds {
			g.Go(func() error {
				available := states[i].Configured && s.isAvailable(gctx, kind)
				states[i].Available = &available
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make(map[domain.ProviderKind]ProviderState, len(states))
	for i, kind := range domain.ProviderKinds {
		out[kind] = states[i]
	}
	return out
}

func (s *quizService) isAvailable(ctx context.Context, kind domain.ProviderKind) bool {
	p, err := s.factory.New(kind, domain.Credentials{})
	if err != nil {
		return false
	}
	checker, ok := p.(domain.AvailabilityChecker)
	if !ok {
		return true
	}
	return checker.IsAvailable(ctx)
}

func truncateForLog(s string) string {
	const limit = 500
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
