package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

var (
	ErrMissingToken       = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrMissingAPIKey      = errors.New("OPENROUTER_API_KEY is required for openrouter provider")
	ErrInvalidProvider    = errors.New("LLM_PROVIDER must be openrouter or mock")
	ErrInvalidPolicy      = errors.New("invalid default policy")
	ErrInvalidTemperature = errors.New("temperature must be within [0, 2]")
	ErrInvalidAttempts    = errors.New("MAX_ATTEMPTS must be at least 1")
	ErrInvalidBriefSize   = errors.New("BRIEF_SIZE must not be negative")
	ErrInvalidThreshold   = errors.New("OVERALL_THRESHOLD must be within [0, 1]")
	ErrInvalidConcurrency = errors.New("BATCH_CONCURRENCY must be at least 1")
	ErrInvalidRateLimit   = errors.New("RATE_LIMIT_PER_MINUTE must be at least 1")
	ErrInvalidCache       = errors.New("VERDICT_CACHE_BACKEND must be memory or lru")
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"

	CacheBackendMemory = "memory"
	CacheBackendLRU    = "lru"
)

type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Log       LogConfig
	Gate      GateConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Batch     BatchConfig
	Metrics   MetricsConfig
}

type TelegramConfig struct {
	Token string
	Debug bool
}

// DatabaseConfig: пустой URL - сессии хранятся в памяти
type DatabaseConfig struct {
	URL string
}

type LLMConfig struct {
	Provider          string
	OpenRouter        OpenRouterConfig
	AuthorTemperature float64
	CriticTemperature float64
}

type OpenRouterConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// GateConfig - рубрика и параметры сессий ревизий
type GateConfig struct {
	RubricFile    string
	Rubric        domain.Rubric
	DefaultPolicy string
	// потолок попыток для всех пресетов
	MaxAttempts int
	// 0 - размер брифа из пресета
	BriefSize      int
	SessionTimeout time.Duration
}

type CacheConfig struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type BatchConfig struct {
	Concurrency int
}

type MetricsConfig struct {
	Addr string
}

// Load читает конфиг бота: без TELEGRAM_BOT_TOKEN - ошибка.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCore - то же без требований к телеграму (для CLI)
func LoadCore() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := &Config{
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
			Debug: os.Getenv("TELEGRAM_DEBUG") == "true",
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			Provider: getEnvOrDefault("LLM_PROVIDER", ProviderMock),
			OpenRouter: OpenRouterConfig{
				APIKey:    os.Getenv("OPENROUTER_API_KEY"),
				Model:     getEnvOrDefault("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
				BaseURL:   getEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				MaxTokens: getEnvIntOrDefault("OPENROUTER_MAX_TOKENS", 4096),
				Timeout:   time.Duration(getEnvIntOrDefault("OPENROUTER_TIMEOUT_SEC", 90)) * time.Second,
			},
			AuthorTemperature: getEnvFloatOrDefault("AUTHOR_TEMPERATURE", 0.7),
			CriticTemperature: getEnvFloatOrDefault("CRITIC_TEMPERATURE", 0.1),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: os.Getenv("LOG_FORMAT"),
		},
		Gate: GateConfig{
			RubricFile:     os.Getenv("RUBRIC_FILE"),
			DefaultPolicy:  getEnvOrDefault("DEFAULT_POLICY", string(domain.PolicyStandard)),
			MaxAttempts:    getEnvIntOrDefault("MAX_ATTEMPTS", 10),
			BriefSize:      getEnvIntOrDefault("BRIEF_SIZE", 0),
			SessionTimeout: time.Duration(getEnvIntOrDefault("SESSION_TIMEOUT_SEC", 0)) * time.Second,
		},
		Cache: CacheConfig{
			Backend:    getEnvOrDefault("VERDICT_CACHE_BACKEND", CacheBackendMemory),
			TTL:        time.Duration(getEnvIntOrDefault("VERDICT_CACHE_TTL_SEC", 3600)) * time.Second,
			MaxEntries: getEnvIntOrDefault("VERDICT_CACHE_MAX_ENTRIES", 1000),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", 5),
		},
		Batch: BatchConfig{
			Concurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 3),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
	}

	rubric := domain.DefaultRubric()
	if cfg.Gate.RubricFile != "" {
		loaded, err := LoadRubric(cfg.Gate.RubricFile)
		if err != nil {
			return nil, err
		}
		rubric = loaded
	}
	if v := os.Getenv("OVERALL_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidThreshold, v)
		}
		rubric.OverallThreshold = f
	}
	cfg.Gate.Rubric = rubric

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.RateLimit.RequestsPerMinute < 1 {
		return ErrInvalidRateLimit
	}
	return c.ValidateCore()
}

// ValidateCore проверяет все, кроме транспорта
func (c *Config) ValidateCore() error {
	switch c.LLM.Provider {
	case ProviderOpenRouter:
		if c.LLM.OpenRouter.APIKey == "" {
			return ErrMissingAPIKey
		}
	case ProviderMock:
	default:
		return ErrInvalidProvider
	}
	if !validTemperature(c.LLM.AuthorTemperature) || !validTemperature(c.LLM.CriticTemperature) {
		return ErrInvalidTemperature
	}
	if c.Batch.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Cache.Backend != CacheBackendMemory && c.Cache.Backend != CacheBackendLRU {
		return ErrInvalidCache
	}
	return c.Gate.Validate()
}

func (g *GateConfig) Validate() error {
	if !domain.PolicyType(g.DefaultPolicy).IsValid() {
		return ErrInvalidPolicy
	}
	if g.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	if g.BriefSize < 0 {
		return ErrInvalidBriefSize
	}
	if g.Rubric.OverallThreshold < 0 || g.Rubric.OverallThreshold > 1 {
		return ErrInvalidThreshold
	}
	return g.Rubric.Validate()
}

// Policy - пресет с наложенными ограничениями из окружения.
// Пустой тип - политика по умолчанию.
func (g *GateConfig) Policy(t domain.PolicyType) (domain.Policy, error) {
	if t == "" {
		t = domain.PolicyType(g.DefaultPolicy)
	}
	p, ok := domain.PolicyFor(t)
	if !ok {
		return domain.Policy{}, fmt.Errorf("%w: %w: %q", domain.ErrConfiguration, domain.ErrInvalidPolicyType, t)
	}
	if g.MaxAttempts > 0 && p.MaxAttempts > g.MaxAttempts {
		p.MaxAttempts = g.MaxAttempts
	}
	if g.BriefSize > 0 {
		p.BriefSize = g.BriefSize
	}
	if g.SessionTimeout > 0 {
		p.TimeoutSeconds = int(g.SessionTimeout.Seconds())
	}
	return p, p.Validate()
}

func validTemperature(t float64) bool {
	return t >= 0 && t <= 2
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
