package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

func TestInboxEventRepository_Create(t *testing.T) {
	recordID := "cr-1"
	now := time.Now()

	tests := []struct {
		name    string
		event   *domain.InboxEvent
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr bool
	}{
		{
			name: "successful insert",
			event: &domain.InboxEvent{
				ID:        "ev-1",
				SessionID: "sess-1",
				ActorID:   "u1",
				Kind:      domain.InboxEventRecordPatched,
				RecordID:  &recordID,
				Payload:   map[string]any{"fields": []string{"title"}},
				CreatedAt: now,
			},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO inbox_events`).
					WithArgs("ev-1", "sess-1", "u1", domain.InboxEventRecordPatched, &recordID, []byte(`{"fields":["title"]}`), now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name:    "nil event",
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: true,
		},
		{
			name:    "missing kind",
			event:   &domain.InboxEvent{ID: "ev-2", ActorID: "u1"},
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: true,
		},
		{
			name: "database error",
			event: &domain.InboxEvent{
				ID:      "ev-3",
				ActorID: "u1",
				Kind:    domain.InboxEventFetched,
			},
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO inbox_events`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)
			repo := NewInboxEventRepository(mock)

			err = repo.Create(context.Background(), tt.event)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInboxEventRepository_ListByActor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	recordID := "cr-9"
	rows := pgxmock.NewRows([]string{"id", "session_id", "actor_id", "kind", "record_id", "payload", "created_at"}).
		AddRow("ev-1", "sess-1", "u1", domain.InboxEventFetched, (*string)(nil), []byte(`{"total":2}`), now).
		AddRow("ev-2", "sess-1", "u1", domain.InboxEventRecordPatched, &recordID, []byte(nil), now.Add(-time.Minute))
	mock.ExpectQuery(`SELECT id, session_id, actor_id, kind, record_id, payload, created_at`).
		WithArgs("u1", 50).
		WillReturnRows(rows)

	events, err := NewInboxEventRepository(mock).ListByActor(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.InboxEventFetched, events[0].Kind)
	assert.Equal(t, float64(2), events[0].Payload["total"])
	assert.Nil(t, events[0].RecordID)
	require.NotNil(t, events[1].RecordID)
	assert.Equal(t, "cr-9", *events[1].RecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
