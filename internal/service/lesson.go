package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/repository"
)

var ErrBatchTooLarge = errors.New("batch too large")

// Runner - то, что проводит одну сессию (revision.Orchestrator)
type Runner interface {
	Run(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error)
	Rubric() domain.Rubric
}

type LessonConfig struct {
	DefaultPolicy    domain.Policy
	BatchConcurrency int
	MaxBatchSize     int
	// сколько ждать записи итога после того, как сессия уже закончилась
	RecordTimeout time.Duration
}

type LessonServiceDeps struct {
	Runner   Runner
	Sessions repository.SessionRepository
	Logger   *zap.Logger
	Config   LessonConfig
}

type LessonService struct {
	runner   Runner
	sessions repository.SessionRepository
	logger   *zap.Logger
	config   LessonConfig
}

// BatchItem - итог одной темы из пакета; сессии пакета независимы
type BatchItem struct {
	Request domain.LessonRequest
	Result  *domain.SessionResult
	Err     error
}

func NewLessonService(deps LessonServiceDeps) *LessonService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config.DefaultPolicy.IsZero() {
		deps.Config.DefaultPolicy = domain.StandardPolicy()
	}
	if deps.Config.BatchConcurrency <= 0 {
		deps.Config.BatchConcurrency = 3
	}
	if deps.Config.MaxBatchSize <= 0 {
		deps.Config.MaxBatchSize = 10
	}
	if deps.Config.RecordTimeout <= 0 {
		deps.Config.RecordTimeout = 5 * time.Second
	}

	return &LessonService{
		runner:   deps.Runner,
		sessions: deps.Sessions,
		logger:   deps.Logger,
		config:   deps.Config,
	}
}

func (s *LessonService) Rubric() domain.Rubric {
	return s.runner.Rubric()
}

func (s *LessonService) DefaultPolicy() domain.Policy {
	return s.config.DefaultPolicy
}

// Generate проводит одну сессию и сохраняет итог.
// Ошибка сохранения только логируется и на результат не влияет.
func (s *LessonService) Generate(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error) {
	if req.Policy.IsZero() {
		req.Policy = s.config.DefaultPolicy
	}
	req.Sanitize()
	if err := req.Validate(); err != nil {
		s.logger.Debug("invalid lesson request", zap.Error(err), zap.Int64("requester_id", req.RequesterID))
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Policy.TimeoutSeconds)*time.Second)
	defer cancel()

	res, err := s.runner.Run(runCtx, req)
	if res == nil {
		return nil, err
	}

	s.record(ctx, req, res)

	if err != nil {
		s.logger.Warn("lesson session failed",
			zap.String("session_id", res.ID),
			zap.Int64("requester_id", req.RequesterID),
			zap.String("error_kind", res.ErrorKind.String()),
			zap.Error(err),
		)
	}
	return res, err
}

// GenerateBatch гоняет независимые сессии параллельно (не больше BatchConcurrency).
// Ошибка одной сессии не отменяет остальные; итоги в порядке запросов.
func (s *LessonService) GenerateBatch(ctx context.Context, reqs []domain.LessonRequest) ([]BatchItem, error) {
	if len(reqs) > s.config.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d topics, max %d", ErrBatchTooLarge, len(reqs), s.config.MaxBatchSize)
	}

	items := make([]BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)

	for i, req := range reqs {
		items[i].Request = req
		g.Go(func() error {
			res, err := s.Generate(gctx, req)
			items[i].Result = res
			items[i].Err = err
			return nil
		})
	}

	_ = g.Wait()

	s.logger.Info("batch finished",
		zap.Int("sessions", len(reqs)),
		zap.Int("accepted", countAccepted(items)),
	)
	return items, ctx.Err()
}

func (s *LessonService) Recent(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error) {
	if s.sessions == nil {
		return nil, nil
	}
	recs, err := s.sessions.ListByRequester(ctx, requesterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return recs, nil
}

func (s *LessonService) record(ctx context.Context, req domain.LessonRequest, res *domain.SessionResult) {
	if s.sessions == nil {
		return
	}

	// сессия могла закончиться по таймауту, а записать итог все равно нужно
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.RecordTimeout)
	defer cancel()

	if err := s.sessions.Save(recCtx, domain.NewSessionRecord(req, res)); err != nil {
		s.logger.Error("failed to record session",
			zap.String("session_id", res.ID),
			zap.Error(err),
		)
	}
}

func countAccepted(items []BatchItem) int {
	n := 0
	for _, it := range items {
		if it.Result.Accepted() {
			n++
		}
	}
	return n
}
