// Package revision гоняет цикл generate -> evaluate -> (accept | revise)
// с ограниченным числом попыток.
//
// Одна сессия строго линейна: автор, потом критик, потом решение.
// Orchestrator не хранит состояния сессий, поэтому один экземпляр можно
// использовать из нескольких горутин одновременно.
package revision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/feedback"
	"github.com/kitbuilder587/lesson-gate/internal/metrics"
	"github.com/kitbuilder587/lesson-gate/internal/scoring"
)

// Author производит кандидата. На первой попытке бриф пустой.
type Author interface {
	Produce(ctx context.Context, req domain.AuthorRequest) (*domain.Lesson, error)
}

// Critic оценивает кандидата. Overall/Status в ответе только рекомендательные.
type Critic interface {
	Evaluate(ctx context.Context, req domain.LessonRequest, candidate *domain.Lesson) (*domain.RawVerdict, error)
}

type State string

const (
	StateAttempting State = "attempting"
	StateEvaluating State = "evaluating"
	StateRevising   State = "revising"
	StateAccepted   State = "accepted"
	StateExhausted  State = "exhausted"
	StateFailed     State = "failed"
)

// Observer получает каждый переход состояния сессии.
// Вызывается синхронно из Run, поэтому должен быть быстрым.
type Observer interface {
	OnTransition(sessionID string, from, to State, attempt int)
}

type ObserverFunc func(sessionID string, from, to State, attempt int)

func (f ObserverFunc) OnTransition(sessionID string, from, to State, attempt int) {
	f(sessionID, from, to, attempt)
}

type Deps struct {
	Author   Author
	Critic   Critic
	Rubric   domain.Rubric
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Observer Observer

	// для тестов: детерминированные id сессий
	NewID func() string
}

type Orchestrator struct {
	author    Author
	critic    Critic
	rubric    domain.Rubric
	collector *feedback.Collector
	logger    *zap.Logger
	metrics   *metrics.Metrics
	observer  Observer
	newID     func() string
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Author == nil || deps.Critic == nil {
		return nil, fmt.Errorf("%w: author and critic are required", domain.ErrConfiguration)
	}
	if err := deps.Rubric.Validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	rubric := deps.Rubric.Clone()
	return &Orchestrator{
		author:    deps.Author,
		critic:    deps.Critic,
		rubric:    rubric,
		collector: feedback.NewCollector(rubric),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		observer:  deps.Observer,
		newID:     deps.NewID,
	}, nil
}

// Rubric - копия активной рубрики
func (o *Orchestrator) Rubric() domain.Rubric { return o.rubric.Clone() }

// session - состояние одной сессии, живет только внутри Run
type session struct {
	id       string
	req      domain.LessonRequest
	policy   domain.Policy
	state    State
	history  []domain.Attempt
	logger   *zap.Logger
	observer Observer
	started  time.Time
}

func (s *session) transition(to State, attempt int) {
	s.logger.Debug("state transition",
		zap.String("from", string(s.state)),
		zap.String("to", string(to)),
		zap.Int("attempt", attempt),
	)
	if s.observer != nil {
		s.observer.OnTransition(s.id, s.state, to, attempt)
	}
	s.state = to
}

// Run проводит одну сессию.
//
// Ошибка конфигурации (политика, MaxAttempts < 1) возвращается до старта как (nil, err).
// accepted и exhausted - нормальные исходы, err == nil.
// Фатальные ошибки попытки возвращаются и в результате (status=error, частичная
// история), и как err.
func (o *Orchestrator) Run(ctx context.Context, req domain.LessonRequest) (*domain.SessionResult, error) {
	if err := req.Policy.Validate(); err != nil {
		return nil, err
	}

	s := &session{
		id:       o.newID(),
		req:      req,
		policy:   req.Policy,
		state:    StateAttempting,
		history:  make([]domain.Attempt, 0, req.Policy.MaxAttempts),
		observer: o.observer,
		started:  time.Now(),
	}
	s.logger = o.logger.With(zap.String("session_id", s.id))

	if o.metrics != nil {
		o.metrics.IncSessionsInFlight()
		defer o.metrics.DecSessionsInFlight()
	}

	s.logger.Info("session started",
		zap.String("topic", req.Topic),
		zap.String("policy", req.Policy.Type.String()),
		zap.Int("max_attempts", req.Policy.MaxAttempts),
		zap.Int("brief_size", req.Policy.BriefSize),
	)

	var brief domain.RevisionBrief
	var previous *domain.Lesson

	for idx := 1; ; idx++ {
		// отмена проверяется только между попытками
		if err := ctx.Err(); err != nil {
			return o.fail(s, idx, fmt.Errorf("%w: before attempt %d: %w", domain.ErrCancelled, idx, err))
		}

		candidate, err := o.produce(ctx, s, idx, brief, previous)
		if err != nil {
			return o.fail(s, idx, err)
		}

		s.transition(StateEvaluating, idx)
		verdict, err := o.evaluate(ctx, s, candidate)
		if err != nil {
			s.history = append(s.history, domain.Attempt{Index: idx, Candidate: candidate})
			return o.fail(s, idx, err)
		}
		s.history = append(s.history, domain.Attempt{Index: idx, Candidate: candidate, Verdict: verdict})

		s.logger.Info("attempt evaluated",
			zap.Int("attempt", idx),
			zap.Float64("overall", verdict.Rounded()),
			zap.String("status", verdict.Status.String()),
			zap.Strings("failed_dimensions", verdict.FailedDimensions),
			zap.Int("issues", len(verdict.Issues)),
		)

		if verdict.Passed() {
			s.transition(StateAccepted, idx)
			return o.accept(s, candidate, verdict), nil
		}

		if idx >= s.policy.MaxAttempts {
			s.transition(StateExhausted, idx)
			return o.exhaust(s), nil
		}

		s.transition(StateRevising, idx)
		brief, err = o.collector.BuildBrief(verdict.Issues, s.policy.BriefSize)
		if err != nil {
			return o.fail(s, idx, err)
		}
		brief.SourceAttempt = idx
		previous = candidate

		s.logger.Debug("revision brief built",
			zap.Int("attempt", idx),
			zap.Int("items", brief.Len()),
			zap.Int("dropped", brief.Dropped),
		)
		s.transition(StateAttempting, idx+1)
	}
}

func (o *Orchestrator) produce(ctx context.Context, s *session, idx int, brief domain.RevisionBrief, previous *domain.Lesson) (*domain.Lesson, error) {
	start := time.Now()
	candidate, err := o.author.Produce(ctx, domain.AuthorRequest{
		Lesson:   s.req,
		Attempt:  idx,
		Brief:    brief,
		Previous: previous,
	})
	if err == nil {
		err = candidate.Validate()
	}
	o.recordCall("author", err, time.Since(start))

	if err != nil {
		return nil, wrapAs(domain.ErrGeneration, err)
	}
	return candidate, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, s *session, candidate *domain.Lesson) (*domain.Verdict, error) {
	start := time.Now()
	raw, err := o.critic.Evaluate(ctx, s.req, candidate)
	o.recordCall("critic", err, time.Since(start))
	if err != nil {
		return nil, wrapAs(domain.ErrEvaluation, err)
	}

	// граница доверия: пересчитываем, ничего не берем у критика как есть
	verdict, err := scoring.BuildVerdict(raw, o.rubric)
	if err != nil {
		return nil, err
	}
	if err := o.collector.Validate(verdict.Issues); err != nil {
		return nil, err
	}

	if verdict.Disagrees() {
		s.logger.Warn("critic reported status differs from recomputed one",
			zap.String("reported", verdict.Advisory.Status.String()),
			zap.String("recomputed", verdict.Status.String()),
		)
	}
	if o.metrics != nil {
		o.metrics.RecordVerdict(verdict.Overall, verdict.FailedDimensions, verdict.Disagrees())
	}
	return verdict, nil
}

func (o *Orchestrator) accept(s *session, candidate *domain.Lesson, verdict *domain.Verdict) *domain.SessionResult {
	res := &domain.SessionResult{
		ID:            s.id,
		Status:        domain.SessionAccepted,
		AttemptsUsed:  len(s.history),
		FinalArtifact: candidate,
		FinalVerdict:  verdict,
		History:       s.history,
		Duration:      time.Since(s.started),
	}
	s.logger.Info("session accepted",
		zap.Int("attempts_used", res.AttemptsUsed),
		zap.Float64("overall", verdict.Rounded()),
		zap.Duration("duration", res.Duration),
	)
	o.recordSession(s, res)
	return res
}

func (o *Orchestrator) exhaust(s *session) *domain.SessionResult {
	res := &domain.SessionResult{
		ID:           s.id,
		Status:       domain.SessionExhausted,
		AttemptsUsed: len(s.history),
		History:      s.history,
		Duration:     time.Since(s.started),
	}
	s.logger.Info("session exhausted",
		zap.Int("attempts_used", res.AttemptsUsed),
		zap.Float64s("trajectory", res.Trajectory()),
		zap.Duration("duration", res.Duration),
	)
	o.recordSession(s, res)
	return res
}

func (o *Orchestrator) fail(s *session, idx int, err error) (*domain.SessionResult, error) {
	s.transition(StateFailed, idx)
	res := &domain.SessionResult{
		ID:           s.id,
		Status:       domain.SessionError,
		AttemptsUsed: len(s.history),
		History:      s.history,
		AttemptIndex: idx,
		ErrorKind:    domain.KindOf(err),
		Message:      err.Error(),
		Duration:     time.Since(s.started),
	}
	s.logger.Error("session failed",
		zap.Error(err),
		zap.Int("attempt", idx),
		zap.String("error_kind", res.ErrorKind.String()),
	)
	o.recordSession(s, res)
	return res, err
}

func (o *Orchestrator) recordCall(role string, err error, d time.Duration) {
	if o.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	o.metrics.RecordCall(role, status, d)
}

func (o *Orchestrator) recordSession(s *session, res *domain.SessionResult) {
	if o.metrics != nil {
		o.metrics.RecordSession(s.policy.Type.String(), res.Status.String(), res.AttemptsUsed, res.Duration)
	}
}

func wrapAs(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
