package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Providers ProvidersConfig
	Retry     RetryConfig
	Quiz      QuizConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	CORSOrigins  []string
}

type LoggerConfig struct {
	Env    string
	Level  string
	Output string // stdout or stderr
}

type ProvidersConfig struct {
	Default    string
	Gemini     ProviderConfig
	GeminiREST ProviderConfig
	ChatGPT    ProviderConfig
	Ollama     ProviderConfig
	Groq       ProviderConfig
}

// ProviderConfig holds the connection settings of one backend.
type ProviderConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type QuizConfig struct {
	OptionPolicy string
	Language     string
	Temperature  float64
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CatalogConfig struct {
	TTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "11m")
	v.SetDefault("server.body_limit", 10*1024*1024)
	v.SetDefault("server.cors_origins", "http://localhost:5173,http://localhost:8080")

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("providers.default", "gemini")

	v.SetDefault("providers.gemini.model", "gemini-2.5-flash")
	v.SetDefault("providers.gemini.timeout", "2m")
	v.SetDefault("providers.gemini.probe_timeout", "10s")

	v.SetDefault("providers.gemini_rest.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("providers.gemini_rest.model", "gemini-1.5-flash")
	v.SetDefault("providers.gemini_rest.timeout", "2m")
	v.SetDefault("providers.gemini_rest.probe_timeout", "10s")

	v.SetDefault("providers.chatgpt.base_url", "https://api.openai.com/v1")
	v.SetDefault("providers.chatgpt.model", "gpt-4-turbo")
	v.SetDefault("providers.chatgpt.timeout", "60s")
	v.SetDefault("providers.chatgpt.probe_timeout", "10s")

	v.SetDefault("providers.ollama.base_url", "http://localhost:11434")
	v.SetDefault("providers.ollama.model", "qwen3-vl:4b")
	v.SetDefault("providers.ollama.timeout", "10m")
	v.SetDefault("providers.ollama.probe_timeout", "2s")

	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("providers.groq.timeout", "60s")
	v.SetDefault("providers.groq.probe_timeout", "10s")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")

	v.SetDefault("quiz.option_policy", "strict")
	v.SetDefault("quiz.language", "en")
	v.SetDefault("quiz.temperature", 0.7)

	v.SetDefault("catalog.ttl", "60s")
}

// envBindings maps config keys to the environment variables the deployment
// scripts already export.
var envBindings = map[string][]string{
	"server.port":                   {"SERVER_PORT", "PORT"},
	"server.cors_origins":           {"CORS_ORIGINS"},
	"logger.env":                    {"ENV"},
	"logger.level":                  {"LOG_LEVEL"},
	"logger.output":                 {"LOG_OUTPUT"},
	"providers.default":             {"DEFAULT_PROVIDER"},
	"providers.gemini.api_key":      {"GEMINI_API_KEY"},
	"providers.gemini.model":        {"GEMINI_MODEL"},
	"providers.gemini_rest.api_key": {"GEMINI_REST_API_KEY", "GEMINI_API_KEY"},
	"providers.gemini_rest.model":   {"GEMINI_REST_MODEL"},
	"providers.chatgpt.api_key":     {"CHATGPT_API_KEY", "OPENAI_API_KEY"},
	"providers.chatgpt.model":       {"CHATGPT_MODEL"},
	"providers.ollama.base_url":     {"OLLAMA_BASE_URL"},
	"providers.ollama.model":        {"OLLAMA_MODEL"},
	"providers.groq.api_key":        {"GROQ_API_KEY"},
	"providers.groq.model":          {"GROQ_MODEL"},
	"retry.max_attempts":            {"GROQ_MAX_RETRIES"},
	"retry.base_delay":              {"GROQ_RETRY_DELAY"},
	"quiz.option_policy":            {"QUIZ_OPTION_POLICY"},
	"quiz.language":                 {"QUIZ_LANGUAGE"},
	"redis.address":                 {"REDIS_ADDRESS"},
	"redis.password":                {"REDIS_PASSWORD"},
	"redis.db":                      {"REDIS_DB"},
	"catalog.ttl":                   {"CATALOG_TTL"},
}

// LoadConfig reads .env (if present), an optional config.yaml and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../configs")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimit:    v.GetInt("server.body_limit"),
			CORSOrigins:  splitList(v.GetString("server.cors_origins")),
		},
		Logger: LoggerConfig{
			Env:    v.GetString("logger.env"),
			Level:  strings.ToLower(v.GetString("logger.level")),
			Output: strings.ToLower(v.GetString("logger.output")),
		},
		Providers: ProvidersConfig{
			Default:    strings.ToLower(v.GetString("providers.default")),
			Gemini:     providerFromViper(v, "providers.gemini"),
			GeminiREST: providerFromViper(v, "providers.gemini_rest"),
			ChatGPT:    providerFromViper(v, "providers.chatgpt"),
			Ollama:     providerFromViper(v, "providers.ollama"),
			Groq:       providerFromViper(v, "providers.groq"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   parseDelay(v.GetString("retry.base_delay")),
		},
		Quiz: QuizConfig{
			OptionPolicy: strings.ToLower(v.GetString("quiz.option_policy")),
			Language:     strings.ToLower(strings.TrimSpace(v.GetString("quiz.language"))),
			Temperature:  v.GetFloat64("quiz.temperature"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Catalog: CatalogConfig{
			TTL: v.GetDuration("catalog.ttl"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func providerFromViper(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		APIKey:       strings.TrimSpace(v.GetString(prefix + ".api_key")),
		BaseURL:      strings.TrimRight(v.GetString(prefix+".base_url"), "/"),
		Model:        v.GetString(prefix + ".model"),
		Timeout:      v.GetDuration(prefix + ".timeout"),
		ProbeTimeout: v.GetDuration(prefix + ".probe_timeout"),
	}
}

// parseDelay accepts a Go duration ("1s", "500ms") or a bare number of
// seconds ("1.5"), which is how GROQ_RETRY_DELAY has always been written.
func parseDelay(s string) time.Duration {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	var secs float64
	if _, err := fmt.Sscanf(s, "%g", &secs); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry.base_delay must not be negative")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Providers.Ollama.Timeout {
		return fmt.Errorf("server.write_timeout (%s) must exceed providers.ollama.timeout (%s)",
			c.Server.WriteTimeout, c.Providers.Ollama.Timeout)
	}
	switch c.Quiz.Language {
	case "en", "fr":
	default:
		return fmt.Errorf("quiz.language must be en or fr, got %q", c.Quiz.Language)
	}
	switch c.Quiz.OptionPolicy {
	case "strict", "lenient":
	default:
		return fmt.Errorf("quiz.option_policy must be strict or lenient, got %q", c.Quiz.OptionPolicy)
	}
	return nil
}

// Provider returns the settings for the provider with the given wire name.
func (p ProvidersConfig) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case "gemini":
		return p.Gemini, true
	case "gemini_rest":
		return p.GeminiREST, true
	case "chatgpt":
		return p.ChatGPT, true
	case "ollama":
		return p.Ollama, true
	case "groq":
		return p.Groq, true
	default:
		return ProviderConfig{}, false
	}
}
