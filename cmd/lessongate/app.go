package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/author"
	authorMock "github.com/kitbuilder587/lesson-gate/internal/author/mock"
	"github.com/kitbuilder587/lesson-gate/internal/cache"
	"github.com/kitbuilder587/lesson-gate/internal/cache/lru"
	"github.com/kitbuilder587/lesson-gate/internal/cache/memory"
	"github.com/kitbuilder587/lesson-gate/internal/config"
	"github.com/kitbuilder587/lesson-gate/internal/critic"
	criticMock "github.com/kitbuilder587/lesson-gate/internal/critic/mock"
	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/llm"
	"github.com/kitbuilder587/lesson-gate/internal/llm/openrouter"
	"github.com/kitbuilder587/lesson-gate/internal/metrics"
	"github.com/kitbuilder587/lesson-gate/internal/repository"
	"github.com/kitbuilder587/lesson-gate/internal/repository/postgres"
	"github.com/kitbuilder587/lesson-gate/internal/revision"
	"github.com/kitbuilder587/lesson-gate/internal/service"
)

var policyTypes = []domain.PolicyType{domain.PolicyQuick, domain.PolicyStandard, domain.PolicyThorough}

// app - собранные компоненты, общие для бота и CLI
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	lessons  *service.LessonService
	policies map[domain.PolicyType]domain.Policy
	close    func()
}

// newApp собирает все от LLM-клиента до сервиса. m может быть nil.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*app, error) {
	a, c, err := buildCollaborators(ctx, cfg, m, logger)
	if err != nil {
		return nil, err
	}

	deps := revision.Deps{
		Author:  a,
		Critic:  c,
		Rubric:  cfg.Gate.Rubric,
		Logger:  logger,
		Metrics: m,
	}
	if m != nil {
		deps.Observer = revision.ObserverFunc(func(_ string, from, to revision.State, _ int) {
			m.RecordTransition(string(from), string(to))
		})
	}
	orch, err := revision.New(deps)
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	policies := make(map[domain.PolicyType]domain.Policy, len(policyTypes))
	for _, t := range policyTypes {
		p, err := cfg.Gate.Policy(t)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", t, err)
		}
		policies[t] = p
	}
	defaultPolicy, err := cfg.Gate.Policy("")
	if err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}

	sessions, closeRepo, err := buildSessionRepository(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	lessons := service.NewLessonService(service.LessonServiceDeps{
		Runner:   orch,
		Sessions: sessions,
		Logger:   logger,
		Config: service.LessonConfig{
			DefaultPolicy:    defaultPolicy,
			BatchConcurrency: cfg.Batch.Concurrency,
		},
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		lessons:  lessons,
		policies: policies,
		close:    closeRepo,
	}, nil
}

// buildCollaborators: mock - скриптованные автор и критик без сети
func buildCollaborators(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (revision.Author, revision.Critic, error) {
	if cfg.LLM.Provider == config.ProviderMock {
		logger.Warn("using mock author and critic, lessons are not real")
		return authorMock.New(), criticMock.New().WithDefault(criticMock.Pass(cfg.Gate.Rubric)), nil
	}

	var client llm.Client = openrouter.New(openrouter.Config{
		APIKey:    cfg.LLM.OpenRouter.APIKey,
		Model:     cfg.LLM.OpenRouter.Model,
		BaseURL:   cfg.LLM.OpenRouter.BaseURL,
		MaxTokens: cfg.LLM.OpenRouter.MaxTokens,
		Timeout:   cfg.LLM.OpenRouter.Timeout,
	}, logger)
	client = llm.NewInstrumented(client, cfg.LLM.Provider, m, logger)

	a := author.New(client, logger, author.Config{
		Temperature: llm.Temperature(cfg.LLM.AuthorTemperature),
	})

	verdicts, err := buildVerdictCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	c := critic.NewCaching(
		critic.New(client, cfg.Gate.Rubric, logger, critic.Config{
			Temperature: llm.Temperature(cfg.LLM.CriticTemperature),
		}),
		verdicts, cfg.Cache.TTL, m, logger,
	)
	return a, c, nil
}

// buildVerdictCache: фоновая чистка memory-кеша живет, пока жив ctx
func buildVerdictCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache[*domain.RawVerdict], error) {
	if cfg.Backend == config.CacheBackendLRU {
		return lru.New[*domain.RawVerdict](cfg.MaxEntries)
	}
	return memory.NewWithContext[*domain.RawVerdict](ctx, memory.Options{MaxEntries: cfg.MaxEntries}), nil
}

// buildSessionRepository: без DATABASE_URL сессии живут в памяти процесса
func buildSessionRepository(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.SessionRepository, func(), error) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set, sessions are kept in memory")
		return repository.NewMemorySessionRepository(), func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return postgres.NewSessionRepo(db), db.Close, nil
}
