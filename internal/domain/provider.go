package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ProviderKind selects the backend that answers a generation request.
type ProviderKind string

const (
	ProviderGemini     ProviderKind = "gemini"
	ProviderGeminiREST ProviderKind = "gemini_rest"
	ProviderChatGPT    ProviderKind = "chatgpt"
	ProviderOllama     ProviderKind = "ollama"
	ProviderGroq       ProviderKind = "groq"
)

// ProviderKinds lists every supported backend in a stable order.
var ProviderKinds = []ProviderKind{
	ProviderGemini,
	ProviderGeminiREST,
	ProviderChatGPT,
	ProviderOllama,
	ProviderGroq,
}

func (k ProviderKind) Valid() bool {
	for _, known := range ProviderKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseProviderKind maps a wire value (case-insensitive) to a ProviderKind.
func ParseProviderKind(s string) (ProviderKind, bool) {
	k := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Message is a single chat turn sent to a provider.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Provider is a text-completion backend. Generate returns the raw,
// untrusted model output.
type Provider interface {
	Kind() ProviderKind
	Model() string
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
}

// AvailabilityChecker is implemented by providers with a cheap round-trip
// probe. IsAvailable never returns an error; any failure means false.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// ModelInfo is a catalog entry of a local inference server.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ModelLister is implemented by providers that expose a model catalog.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ProviderFactory builds adapters from startup configuration merged with
// per-request credentials.
type ProviderFactory interface {
	New(kind ProviderKind, creds Credentials) (Provider, error)
	Configured(kind ProviderKind) bool
}

// ProviderErrorKind classifies provider failures for the retry policy.
type ProviderErrorKind string

const (
	ErrKindUnauthenticated ProviderErrorKind = "unauthenticated"
	ErrKindModelNotFound   ProviderErrorKind = "model_not_found"
	ErrKindUnavailable     ProviderErrorKind = "unavailable"
	ErrKindTimeout         ProviderErrorKind = "timeout"
	ErrKindRateLimited     ProviderErrorKind = "rate_limited"
	ErrKindUnknown         ProviderErrorKind = "unknown"
)

// ProviderError is the only error type adapters return.
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider ProviderKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retriable reports whether another attempt could succeed.
func (e *ProviderError) Retriable() bool {
	switch e.Kind {
	case ErrKindUnauthenticated, ErrKindModelNotFound:
		return false
	default:
		return true
	}
}

func NewProviderError(provider ProviderKind, kind ProviderErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Message: message, Err: err}
}

// IsRetriable reports whether err is worth another attempt. Errors that are
// not ProviderErrors count as unknown and are retriable.
func IsRetriable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retriable()
	}
	return true
}

// ProviderErrorKindOf returns the kind of err, or ErrKindUnknown.
func ProviderErrorKindOf(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindUnknown
}
