// Package provider holds the LLM backend adapters. Every adapter returns the
// raw model text from Generate and reports failures as *domain.ProviderError.
package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quizforge/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultTimeout      = 2 * time.Minute
	defaultProbeTimeout = 10 * time.Second
	defaultTemperature  = 0.7
	defaultTopP         = 0.9
	defaultTopK         = 40
)

// Settings is the resolved configuration of a single adapter instance.
type Settings struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

func (s Settings) withDefaults() Settings {
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	if s.ProbeTimeout <= 0 {
		s.ProbeTimeout = defaultProbeTimeout
	}
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return s
}

// splitMessages folds the chat turns into one system and one user text for
// backends without a native chat format.
func splitMessages(messages []domain.Message) (system, user string) {
	var sys, usr []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			sys = append(sys, m.Content)
		} else {
			usr = append(usr, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}

func temperatureOf(opts domain.GenerateOptions) float64 {
	if opts.Temperature <= 0 {
		return defaultTemperature
	}
	return opts.Temperature
}

// probe runs check under the adapter's probe timeout and swallows every
// failure.
func probe(ctx context.Context, s Settings, kind domain.ProviderKind, check func(ctx context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, s.ProbeTimeout)
	defer cancel()
	if err := check(ctx); err != nil {
		s.Logger.Debug("Provider probe failed", zap.String("provider", string(kind)), zap.Error(err))
		return false
	}
	return true
}
