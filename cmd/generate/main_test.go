package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/quiz"
	"quizforge/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	mu       sync.Mutex
	requests []domain.QuizRequest
}

func (s *stubGenerator) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (*domain.QuizResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if strings.TrimSpace(req.Text) == "" {
		return nil, domain.NewInputError("source text is required")
	}
	if req.Text == "fail\n" || ctx.Err() != nil {
		return &domain.QuizResult{Questions: quiz.Fallback(req.Count, domain.DifficultyMedium), Fallback: true, Error: "boom"}, nil
	}
	return &domain.QuizResult{Questions: quiz.Fallback(req.Count, domain.DifficultyEasy)}, nil
}

func (s *stubGenerator) ProviderStatus(ctx context.Context, probe bool) map[domain.ProviderKind]service.ProviderState {
	return nil
}

func TestRun_WritesOneFilePerInput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "quizzes")
	require.NoError(t, os.WriteFile(filepath.Join(in, "chapter1.txt"), []byte("Go has goroutines.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "chapter2.md"), []byte("fail\n"), 0o644))

	gen := &stubGenerator{}
	opts := options{count: 2, difficulty: "easy", provider: "ollama", language: "en", outDir: out, concurrency: 2}
	err := run(context.Background(), gen, opts,
		[]string{filepath.Join(in, "chapter1.txt"), filepath.Join(in, "chapter2.md")}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, gen.requests, 2)
	assert.Equal(t, domain.ProviderOllama, gen.requests[0].Provider)

	raw, err := os.ReadFile(filepath.Join(out, "chapter1.quiz.json"))
	require.NoError(t, err)
	var ok dto.GenerateQuizResponse
	require.NoError(t, json.Unmarshal(raw, &ok))
	assert.Len(t, ok.Questions, 2)

	raw, err = os.ReadFile(filepath.Join(out, "chapter2.quiz.json"))
	require.NoError(t, err)
	var failed dto.GenerateQuizFailureResponse
	require.NoError(t, json.Unmarshal(raw, &failed))
	assert.Equal(t, "boom", failed.Error)
}

func TestRun_MissingInput(t *testing.T) {
	err := run(context.Background(), &stubGenerator{}, options{count: 1, outDir: t.TempDir()},
		[]string{filepath.Join(t.TempDir(), "nope.txt")}, zap.NewNop())
	assert.Error(t, err)
}

func TestRun_BadInputDoesNotSpoilOthers(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	blank := filepath.Join(in, "a.txt")
	good := filepath.Join(in, "b.txt")
	require.NoError(t, os.WriteFile(blank, []byte("   "), 0o644))
	require.NoError(t, os.WriteFile(good, []byte("Mitochondria produce ATP."), 0o644))

	err := run(context.Background(), &stubGenerator{}, options{count: 1, outDir: out, concurrency: 1},
		[]string{blank, good}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.txt")

	_, statErr := os.Stat(filepath.Join(out, "a.quiz.json"))
	assert.True(t, os.IsNotExist(statErr))

	raw, err := os.ReadFile(filepath.Join(out, "b.quiz.json"))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotContains(t, body, "error", "good input must not be a placeholder quiz")
}

func TestRun_CancelledSkipsInputs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(in, []byte("text"), 0o644))
	out := t.TempDir()

	gen := &stubGenerator{}
	err := run(ctx, gen, options{count: 1, outDir: out}, []string{in}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.requests)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOutputNames_Collisions(t *testing.T) {
	names := outputNames([]string{"a/notes.txt", "b/notes.md", "c/other.txt", "-", "d/notes"})
	assert.Equal(t, []string{"notes", "notes-2", "other", "stdin", "notes-3"}, names)
}

func TestRun_SameBaseNameKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	first := filepath.Join(dir, "a", "notes.txt")
	second := filepath.Join(dir, "b", "notes.md")
	require.NoError(t, os.WriteFile(first, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("two"), 0o644))
	out := t.TempDir()

	require.NoError(t, run(context.Background(), &stubGenerator{}, options{count: 1, outDir: out, concurrency: 2},
		[]string{first, second}, zap.NewNop()))
	assert.FileExists(t, filepath.Join(out, "notes.quiz.json"))
	assert.FileExists(t, filepath.Join(out, "notes-2.quiz.json"))
}
