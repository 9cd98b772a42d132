package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// MemorySessionRepository - хранилище в памяти, когда DATABASE_URL не задан, и для тестов
type MemorySessionRepository struct {
	mu      sync.RWMutex
	records map[string]domain.SessionRecord
	saveErr error
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		records: make(map[string]domain.SessionRecord),
	}
}

// WithSaveError - Save всегда падает с err (для тестов)
func (m *MemorySessionRepository) WithSaveError(err error) *MemorySessionRepository {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
	return m
}

func (m *MemorySessionRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

func (m *MemorySessionRepository) GetByID(ctx context.Context, id string) (*domain.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyRecord(&rec)
	return &out, nil
}

func (m *MemorySessionRepository) ListByRequester(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.SessionRecord
	for _, rec := range m.records {
		if rec.RequesterID == requesterID {
			out = append(out, copyRecord(&rec))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemorySessionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func copyRecord(rec *domain.SessionRecord) domain.SessionRecord {
	out := *rec
	if rec.Overall != nil {
		v := *rec.Overall
		out.Overall = &v
	}
	return out
}

var _ SessionRepository = (*MemorySessionRepository)(nil)
