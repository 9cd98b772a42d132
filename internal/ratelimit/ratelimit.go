package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter - скользящее окно на пользователя. Одна сессия генерации = один запрос,
// пакет из N тем списывает N.
type Limiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type Config struct {
	RequestsPerMinute int
	// по умолчанию минута
	Window          time.Duration
	CleanupInterval time.Duration
}

func New(cfg Config) *Limiter {
	return NewWithContext(context.Background(), cfg)
}

func NewWithContext(ctx context.Context, cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &Limiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   cfg.Window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup(ctx, cfg.CleanupInterval)
	return l
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Allow(userID int64) bool {
	return l.AllowN(userID, 1)
}

// AllowN - все или ничего: либо списываются n запросов, либо ни одного
func (l *Limiter) AllowN(userID int64, n int) bool {
	if n <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.freshLocked(userID, now)

	if len(fresh)+n > l.limit {
		l.requests[userID] = fresh
		return false
	}

	for i := 0; i < n; i++ {
		fresh = append(fresh, now)
	}
	l.requests[userID] = fresh
	return true
}

func (l *Limiter) RemainingRequests(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cnt := len(l.freshLocked(userID, l.now()))
	if rem := l.limit - cnt; rem > 0 {
		return rem
	}
	return 0
}

// ResetTime - когда освободится ближайший слот
func (l *Limiter) ResetTime(userID int64) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.freshLocked(userID, now)
	if len(ts) == 0 {
		return now
	}

	oldest := ts[0]
	for _, t := range ts[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(l.window)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// freshLocked оставляет только запросы внутри окна; вызывать под mu
func (l *Limiter) freshLocked(userID int64, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.requests[userID]
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (l *Limiter) cleanup(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-tick.C:
			l.removeStale()
		}
	}
}

func (l *Limiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for uid := range l.requests {
		fresh := l.freshLocked(uid, now)
		if len(fresh) == 0 {
			delete(l.requests, uid)
		} else {
			l.requests[uid] = fresh
		}
	}
}
