// Command generate runs the quiz pipeline over text files without the HTTP
// server and writes one JSON quiz per input.
//
//	generate -n 10 -difficulty hard -provider ollama notes/*.txt
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"quizforge/internal/adapter/provider"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/quiz"
	"quizforge/internal/retry"
	"quizforge/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type options struct {
	count       int
	difficulty  string
	provider    string
	model       string
	language    string
	outDir      string
	concurrency int
}

func main() {
	var opts options
	flag.IntVar(&opts.count, "n", domain.DefaultQuestionCount, "number of questions per input")
	flag.StringVar(&opts.difficulty, "difficulty", string(domain.DifficultyMedium), "easy, medium or hard")
	flag.StringVar(&opts.provider, "provider", "", "provider kind (defaults to providers.default)")
	flag.StringVar(&opts.model, "model", "", "model override")
	flag.StringVar(&opts.language, "lang", "", "output language, en or fr (defaults to quiz.language)")
	flag.StringVar(&opts.outDir, "out", "", "write <input>.quiz.json files here instead of stdout")
	flag.IntVar(&opts.concurrency, "j", 1, "inputs processed in parallel")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Logger.Output = "stderr"
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewQuizService(
		provider.NewFactory(cfg.Providers, l),
		retry.NewController(retry.Policy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}, l),
		quiz.NewNormalizer(quiz.ParseOptionPolicy(cfg.Quiz.OptionPolicy), l),
		cfg,
		l,
	)

	inputs := flag.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if len(inputs) > 1 && opts.outDir == "" {
		l.Fatal("-out is required with more than one input")
	}

	if err := run(ctx, svc, opts, inputs, l); err != nil {
		l.Error("Generation finished with errors", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, svc service.QuizGenerator, opts options, inputs []string, l *zap.Logger) error {
	names := outputNames(inputs)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(max(opts.concurrency, 1))
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for i, input := range inputs {
		g.Go(func() error {
			// An interrupted run must not write placeholder quizzes.
			if err := ctx.Err(); err != nil {
				fail(fmt.Errorf("%s: skipped: %w", input, err))
				return nil
			}

			text, err := readInput(input)
			if err != nil {
				fail(err)
				return nil
			}

			result, err := svc.GenerateQuiz(ctx, domain.QuizRequest{
				Text:        text,
				Count:       opts.count,
				Difficulty:  domain.Difficulty(opts.difficulty),
				Provider:    domain.ProviderKind(opts.provider),
				Language:    domain.Language(opts.language),
				Credentials: domain.Credentials{Model: opts.model},
			})
			if err != nil {
				fail(fmt.Errorf("%s: %w", input, err))
				return nil
			}
			if result.Fallback {
				l.Warn("Placeholder questions written", zap.String("input", input), zap.String("error", result.Error))
			}

			if err := writeResult(opts.outDir, names[i], result); err != nil {
				fail(fmt.Errorf("%s: %w", input, err))
				return nil
			}
			l.Info("Quiz written",
				zap.String("input", input),
				zap.String("provider", string(result.Provider)),
				zap.Int("questions", len(result.Questions)),
				zap.Bool("fallback", result.Fallback))
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// outputNames derives one file stem per input. Inputs sharing a base name
// (a/notes.txt, b/notes.md) get a numeric suffix instead of overwriting
// each other.
func outputNames(inputs []string) []string {
	names := make([]string, len(inputs))
	seen := make(map[string]int, len(inputs))
	for i, input := range inputs {
		name := "stdin"
		if input != "-" {
			name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		names[i] = name
	}
	return names
}

func readInput(path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(raw), nil
}

func writeResult(outDir, name string, result *domain.QuizResult) error {
	var payload any = dto.GenerateQuizResponse{Questions: result.Questions}
	if result.Fallback {
		payload = dto.GenerateQuizFailureResponse{Error: result.Error, Questions: result.Questions}
	}

	if outDir == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, name+".quiz.json"), raw, 0o644)
}
