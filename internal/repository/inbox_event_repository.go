package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// DBTX is the subset of pgxpool.Pool used by repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InboxEventRepository persists the inbox audit trail.
type InboxEventRepository interface {
	Create(ctx context.Context, event *domain.InboxEvent) error
	ListByActor(ctx context.Context, actorID string, limit int) ([]domain.InboxEvent, error)
}

type inboxEventRepository struct {
	db DBTX
}

// NewInboxEventRepository returns a Postgres-backed implementation.
func NewInboxEventRepository(db DBTX) InboxEventRepository {
	return &inboxEventRepository{db: db}
}

func (r *inboxEventRepository) Create(ctx context.Context, event *domain.InboxEvent) error {
	if event == nil {
		return errors.New("event required")
	}
	if event.ID == "" || event.ActorID == "" || event.Kind == "" {
		return errors.New("event id, actor and kind required")
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	const query = `
        INSERT INTO inbox_events (id, session_id, actor_id, kind, record_id, payload, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.db.Exec(ctx, query,
		event.ID,
		event.SessionID,
		event.ActorID,
		event.Kind,
		event.RecordID,
		payload,
		event.CreatedAt,
	)
	return err
}

func (r *inboxEventRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]domain.InboxEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
        SELECT id, session_id, actor_id, kind, record_id, payload, created_at
        FROM inbox_events WHERE actor_id=$1
        ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.InboxEvent
	for rows.Next() {
		var (
			event   domain.InboxEvent
			payload []byte
		)
		if err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&event.ActorID,
			&event.Kind,
			&event.RecordID,
			&payload,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
