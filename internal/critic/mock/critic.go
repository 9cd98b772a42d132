package mock

import (
	"context"
	"sync"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// Critic - скриптованный критик для тестов
type Critic struct {
	mu sync.Mutex

	Verdicts []*domain.RawVerdict
	Errors   []error
	// Default отдается, когда скрипт закончился
	Default *domain.RawVerdict

	Candidates []*domain.Lesson
}

func New() *Critic {
	return &Critic{}
}

func (c *Critic) WithVerdicts(v ...*domain.RawVerdict) *Critic {
	c.Verdicts = append(c.Verdicts, v...)
	return c
}

func (c *Critic) WithDefault(v *domain.RawVerdict) *Critic {
	c.Default = v
	return c
}

func (c *Critic) WithErrorAt(n int, err error) *Critic {
	for len(c.Errors) < n {
		c.Errors = append(c.Errors, nil)
	}
	c.Errors[n-1] = err
	return c
}

func (c *Critic) Evaluate(ctx context.Context, req domain.LessonRequest, candidate *domain.Lesson) (*domain.RawVerdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := len(c.Candidates)
	c.Candidates = append(c.Candidates, candidate)

	if idx < len(c.Errors) && c.Errors[idx] != nil {
		return nil, c.Errors[idx]
	}
	if idx < len(c.Verdicts) {
		return c.Verdicts[idx], nil
	}
	return c.Default, nil
}

func (c *Critic) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Candidates)
}

// Uniform - вердикт с одинаковой оценкой по всем измерениям рубрики
func Uniform(rubric domain.Rubric, score float64, issues ...domain.Issue) *domain.RawVerdict {
	scores := make(map[string]float64, len(rubric.Dimensions))
	for _, d := range rubric.Dimensions {
		scores[d.Name] = score
	}
	return &domain.RawVerdict{Scores: scores, Issues: issues}
}

// Pass - все оценки 1.0
func Pass(rubric domain.Rubric) *domain.RawVerdict {
	return Uniform(rubric, 1)
}

// Fail - все оценки 0.2 плюс претензии
func Fail(rubric domain.Rubric, issues ...domain.Issue) *domain.RawVerdict {
	return Uniform(rubric, 0.2, issues...)
}
