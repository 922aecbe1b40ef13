package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizforge/internal/config"
	"quizforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessages = []domain.Message{
	{Role: domain.RoleSystem, Content: "You are a quiz generator."},
	{Role: domain.RoleUser, Content: "Generate 1 question."},
}

const questionsJSON = `{"questions":[]}`

func errorKind(t *testing.T, err error) domain.ProviderErrorKind {
	t.Helper()
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	return pe.Kind
}

func TestConstructors_RequireKey(t *testing.T) {
	_, err := NewGeminiSDK(Settings{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
	_, err = NewGeminiREST(Settings{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
	_, err = NewChatGPT(Settings{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
	_, err = NewGroq(Settings{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
}

func TestGeminiREST_Generate(t *testing.T) {
	var got restRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"questions\":"},{"text":"[]}"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiREST(Settings{APIKey: "secret", BaseURL: srv.URL + "/", Model: "gemini-test"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), testMessages, domain.GenerateOptions{MaxTokens: 4096, JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, questionsJSON, out)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "You are a quiz generator.", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "Generate 1 question.", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 4096, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
	assert.InDelta(t, defaultTemperature, got.GenerationConfig.Temperature, 1e-9)
}

func TestGeminiREST_StatusErrors(t *testing.T) {
	cases := map[int]domain.ProviderErrorKind{
		http.StatusForbidden:          domain.ErrKindUnauthenticated,
		http.StatusNotFound:           domain.ErrKindModelNotFound,
		http.StatusTooManyRequests:    domain.ErrKindRateLimited,
		http.StatusServiceUnavailable: domain.ErrKindUnavailable,
	}
	for code, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"nope"}}`, code)
		}))
		g, err := NewGeminiREST(Settings{APIKey: "k", BaseURL: srv.URL, Model: "m"})
		require.NoError(t, err)

		_, err = g.Generate(context.Background(), testMessages, domain.GenerateOptions{})
		assert.Equal(t, want, errorKind(t, err), "status %d", code)
		srv.Close()
	}
}

func TestGeminiREST_InvalidKeyIsNotRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.",` +
			`"status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`))
	}))
	defer srv.Close()

	g, err := NewGeminiREST(Settings{APIKey: "wrong", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), testMessages, domain.GenerateOptions{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
	assert.False(t, domain.IsRetriable(err))
}

func TestGeminiREST_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiREST(Settings{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), testMessages, domain.GenerateOptions{})
	assert.Equal(t, domain.ErrKindUnknown, errorKind(t, err))
}

func TestGeminiREST_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g, err := NewGeminiREST(Settings{APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), testMessages, domain.GenerateOptions{})
	assert.Equal(t, domain.ErrKindTimeout, errorKind(t, err))
}

func TestGeminiREST_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"name":"models/m"}`)
	}))
	defer srv.Close()

	good, err := NewGeminiREST(Settings{APIKey: "good", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)
	assert.True(t, good.IsAvailable(context.Background()))

	bad, err := NewGeminiREST(Settings{APIKey: "bad", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)
	assert.False(t, bad.IsAvailable(context.Background()))
}

func TestChatGPT_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		assert.Len(t, body["messages"], 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"questions\":[]}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer srv.Close()

	c, err := NewChatGPT(Settings{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderChatGPT, c.Kind())

	out, err := c.Generate(context.Background(), testMessages, domain.GenerateOptions{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, questionsJSON, out)
}

func TestChatGPT_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	c, err := NewChatGPT(Settings{APIKey: "sk-bad", BaseURL: srv.URL, Model: "gpt-test"})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), testMessages, domain.GenerateOptions{})
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))
	assert.False(t, domain.IsRetriable(err))
	assert.False(t, c.IsAvailable(context.Background()))
}

func TestOllama_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = io.WriteString(w, `{"models":[
			{"name":"qwen3-vl:4b","size":3300000000,"modified_at":"2025-01-02T03:04:05Z","digest":"abc"},
			{"name":"llama3.2:latest","size":2000000000,"modified_at":"2025-02-01T00:00:00Z"}]}`)
	}))
	defer srv.Close()

	o, err := NewOllama(Settings{BaseURL: srv.URL, Model: "qwen3-vl:4b"})
	require.NoError(t, err)

	models, err := o.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "qwen3-vl:4b", models[0].Name)
	assert.Equal(t, int64(3300000000), models[0].Size)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), models[0].ModifiedAt.UTC())
	assert.True(t, o.IsAvailable(context.Background()))
}

func TestOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o, err := NewOllama(Settings{BaseURL: url, Model: "m", ProbeTimeout: time.Second})
	require.NoError(t, err)

	assert.False(t, o.IsAvailable(context.Background()))
	_, err = o.ListModels(context.Background())
	assert.Equal(t, domain.ErrKindUnavailable, errorKind(t, err))
}

func TestOllama_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen-test", body["model"])
		assert.Equal(t, "json", body["format"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"qwen-test","created_at":"2025-01-01T00:00:00Z",
			"message":{"role":"assistant","content":"{\"questions\":[]}"},"done":true}`)
	}))
	defer srv.Close()

	o, err := NewOllama(Settings{BaseURL: srv.URL, Model: "qwen-test"})
	require.NoError(t, err)

	out, err := o.Generate(context.Background(), testMessages, domain.GenerateOptions{MaxTokens: 4096, JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, questionsJSON, out)
}

func TestGroq_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"g1","object":"chat.completion","created":1,"model":"llama-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"questions\":[]}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer srv.Close()

	g, err := NewGroq(Settings{APIKey: "gsk-test", BaseURL: srv.URL, Model: "llama-test"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), testMessages, domain.GenerateOptions{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, questionsJSON, out)
	assert.True(t, g.IsAvailable(context.Background()))
}

func TestGroq_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests"}}`)
	}))
	defer srv.Close()

	g, err := NewGroq(Settings{APIKey: "gsk-test", BaseURL: srv.URL, Model: "llama-test"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), testMessages, domain.GenerateOptions{})
	assert.Equal(t, domain.ErrKindRateLimited, errorKind(t, err))
	assert.True(t, domain.IsRetriable(err))
}

func TestFactory(t *testing.T) {
	cfg := config.ProvidersConfig{
		Default:    "gemini",
		GeminiREST: config.ProviderConfig{APIKey: "env-key", BaseURL: "https://example.test", Model: "env-model"},
		Ollama:     config.ProviderConfig{BaseURL: "http://localhost:11434", Model: "qwen"},
	}
	f := NewFactory(cfg, nil)

	assert.True(t, f.Configured(domain.ProviderGeminiREST))
	assert.True(t, f.Configured(domain.ProviderOllama))
	assert.False(t, f.Configured(domain.ProviderChatGPT))
	assert.False(t, f.Configured("nope"))

	p, err := f.New(domain.ProviderGeminiREST, domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "env-model", p.Model())

	p, err = f.New(domain.ProviderGeminiREST, domain.Credentials{APIKey: "req-key", Model: "req-model"})
	require.NoError(t, err)
	assert.Equal(t, "req-model", p.Model())
	assert.Equal(t, "req-key", p.(*GeminiREST).settings.APIKey)

	p, err = f.New(domain.ProviderChatGPT, domain.Credentials{})
	assert.Nil(t, p)
	assert.Equal(t, domain.ErrKindUnauthenticated, errorKind(t, err))

	p, err = f.New(domain.ProviderChatGPT, domain.Credentials{APIKey: "sk-req"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderChatGPT, p.Kind())

	_, err = f.New("nope", domain.Credentials{})
	assert.Error(t, err)
}
