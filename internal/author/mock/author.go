package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// Author - скриптованный автор для тестов.
// Lessons/Errors выдаются по номеру вызова, дальше - дефолтный урок.
type Author struct {
	mu sync.Mutex

	Lessons []*domain.Lesson
	Errors  []error
	Delay   time.Duration

	Calls []domain.AuthorRequest
}

func New() *Author {
	return &Author{}
}

func (a *Author) WithLessons(lessons ...*domain.Lesson) *Author {
	a.Lessons = append(a.Lessons, lessons...)
	return a
}

// WithErrorAt - ошибка на n-м вызове (с 1)
func (a *Author) WithErrorAt(n int, err error) *Author {
	for len(a.Errors) < n {
		a.Errors = append(a.Errors, nil)
	}
	a.Errors[n-1] = err
	return a
}

func (a *Author) WithDelay(d time.Duration) *Author {
	a.Delay = d
	return a
}

func (a *Author) Produce(ctx context.Context, req domain.AuthorRequest) (*domain.Lesson, error) {
	a.mu.Lock()
	idx := len(a.Calls)
	a.Calls = append(a.Calls, req)
	a.mu.Unlock()

	if a.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.Delay):
		}
	}

	if idx < len(a.Errors) && a.Errors[idx] != nil {
		return nil, a.Errors[idx]
	}
	if idx < len(a.Lessons) {
		return a.Lessons[idx], nil
	}
	return &domain.Lesson{
		Title:   req.Lesson.Topic,
		Content: fmt.Sprintf("Draft %d about %s", req.Attempt, req.Lesson.Topic),
	}, nil
}

func (a *Author) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Calls)
}

// Call возвращает копию запроса n-го вызова (с 1)
func (a *Author) Call(n int) domain.AuthorRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Calls[n-1]
}
