package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/metrics"
)

// Instrumented пишет метрики и debug-лог вокруг любого Client
type Instrumented struct {
	next     Client
	provider string
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewInstrumented(next Client, provider string, m *metrics.Metrics, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{next: next, provider: provider, metrics: m, logger: logger}
}

func (c *Instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := c.next.Complete(ctx, req)
	elapsed := time.Since(start)

	status := statusOf(err)
	if c.metrics != nil {
		c.metrics.RecordLLMRequest(c.provider, status, elapsed)
	}

	c.logger.Debug("llm request",
		zap.String("provider", c.provider),
		zap.String("status", status),
		zap.Bool("json", req.JSON),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("response_len", len(out)),
		zap.Duration("duration", elapsed),
	)
	return out, err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimit):
		return "rate_limited"
	case errors.Is(err, ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

var _ Client = (*Instrumented)(nil)
