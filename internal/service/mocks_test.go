package service

import (
	"context"
	"time"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockProviderFactory ---
type MockProviderFactory struct {
	mock.Mock
}

func (m *MockProviderFactory) New(kind domain.ProviderKind, creds domain.Credentials) (domain.Provider, error) {
	args := m.Called(kind, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Provider), args.Error(1)
}

func (m *MockProviderFactory) Configured(kind domain.ProviderKind) bool {
	args := m.Called(kind)
	return args.Bool(0)
}

// --- MockProvider ---
// Implements Provider, AvailabilityChecker and ModelLister.
type MockProvider struct {
	mock.Mock
	kind  domain.ProviderKind
	model string
}

func NewMockProvider(kind domain.ProviderKind, model string) *MockProvider {
	return &MockProvider{kind: kind, model: model}
}

func (m *MockProvider) Kind() domain.ProviderKind { return m.kind }
func (m *MockProvider) Model() string             { return m.model }

func (m *MockProvider) Generate(ctx context.Context, messages []domain.Message, opts domain.GenerateOptions) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ModelInfo), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
