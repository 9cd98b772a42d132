package repository

import (
	"context"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// SessionRepository хранит итоги сессий. Ядро о нем не знает,
// пишет сервис после завершения сессии.
type SessionRepository interface {
	Save(ctx context.Context, rec *domain.SessionRecord) error
	GetByID(ctx context.Context, id string) (*domain.SessionRecord, error)
	// новые сверху
	ListByRequester(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error)
}
