package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/repository"
)

type SessionRepo struct {
	db *DB
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Save(ctx context.Context, rec *domain.SessionRecord) error {
	query := `
		INSERT INTO sessions (id, requester_id, topic, policy, status, attempts_used,
			overall, final_title, final_content, error_kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts_used = EXCLUDED.attempts_used,
			overall = EXCLUDED.overall,
			final_title = EXCLUDED.final_title,
			final_content = EXCLUDED.final_content,
			error_kind = EXCLUDED.error_kind,
			message = EXCLUDED.message
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		rec.ID,
		rec.RequesterID,
		rec.Topic,
		string(rec.PolicyType),
		string(rec.Status),
		rec.AttemptsUsed,
		rec.Overall,
		nullString(rec.FinalTitle),
		nullString(rec.FinalContent),
		nullString(string(rec.ErrorKind)),
		nullString(rec.Message),
		rec.CreatedAt,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

const selectSession = `
	SELECT id, requester_id, topic, policy, status, attempts_used,
		overall, final_title, final_content, error_kind, message, created_at
	FROM sessions
`

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.SessionRecord, error) {
	rows, err := r.db.Pool.Query(ctx, selectSession+`WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	defer rows.Close()

	recs, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &recs[0], nil
}

func (r *SessionRepo) ListByRequester(ctx context.Context, requesterID int64, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Pool.Query(ctx,
		selectSession+`WHERE requester_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		requesterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]domain.SessionRecord, error) {
	var out []domain.SessionRecord
	for rows.Next() {
		var rec domain.SessionRecord
		var policy, status string
		var title, content, kind, message *string
		err := rows.Scan(
			&rec.ID,
			&rec.RequesterID,
			&rec.Topic,
			&policy,
			&status,
			&rec.AttemptsUsed,
			&rec.Overall,
			&title,
			&content,
			&kind,
			&message,
			&rec.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.PolicyType = domain.PolicyType(policy)
		rec.Status = domain.SessionStatus(status)
		rec.FinalTitle = deref(title)
		rec.FinalContent = deref(content)
		rec.ErrorKind = domain.ErrorKind(deref(kind))
		rec.Message = deref(message)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ repository.SessionRepository = (*SessionRepo)(nil)
