package critic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/cache"
	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/metrics"
)

// Evaluator - то же, что revision.Critic; объявлено здесь, чтобы не тянуть revision
type Evaluator interface {
	Evaluate(ctx context.Context, req domain.LessonRequest, candidate *domain.Lesson) (*domain.RawVerdict, error)
}

// CachingCritic запоминает вердикты для одинаковых пар (запрос, кандидат).
// Ошибки не кешируются.
type CachingCritic struct {
	next    Evaluator
	cache   cache.Cache[*domain.RawVerdict]
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCaching(next Evaluator, c cache.Cache[*domain.RawVerdict], ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *CachingCritic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingCritic{next: next, cache: c, ttl: ttl, metrics: m, logger: logger}
}

func (c *CachingCritic) Evaluate(ctx context.Context, req domain.LessonRequest, candidate *domain.Lesson) (*domain.RawVerdict, error) {
	if candidate == nil {
		return c.next.Evaluate(ctx, req, candidate)
	}

	key := CacheKey(req, candidate)
	if v, ok := c.cache.Get(key); ok {
		c.logger.Debug("verdict cache hit", zap.String("key", key[:12]))
		if c.metrics != nil {
			c.metrics.RecordCacheHit()
		}
		return v, nil
	}
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	v, err := c.next.Evaluate(ctx, req, candidate)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, v, c.ttl)
	return v, nil
}

// CacheKey - sha256 от всего, что видит критик
func CacheKey(req domain.LessonRequest, candidate *domain.Lesson) string {
	h := sha256.New()
	for _, part := range []string{
		req.Topic,
		req.Audience,
		req.Level.String(),
		strings.Join(req.Objectives, "\n"),
		candidate.Title,
		candidate.Content,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "verdict:" + hex.EncodeToString(h.Sum(nil))
}
