package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/config"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	"github.com/spec-kit/dcr-inbox/internal/repository"
)

// AuditService records inbox events into the audit trail.
type AuditService struct {
	dispatcher events.Dispatcher
	repo       repository.InboxEventRepository
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service. repo may be nil when Postgres is not configured;
// events are then only logged.
func NewAuditService(dispatcher events.Dispatcher, repo repository.InboxEventRepository, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger.Named("audit"),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every inbox event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("session_id", event.SessionID),
		zap.String("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload))

	if !a.cfg.Enabled || a.repo == nil {
		return nil
	}
	payload, err := payloadMap(event.Payload)
	if err != nil {
		return err
	}
	return a.repo.Create(ctx, &domain.InboxEvent{
		ID:        event.ID,
		SessionID: event.SessionID,
		ActorID:   event.Actor.ID,
		Kind:      event.Type,
		RecordID:  event.RecordID,
		Payload:   payload,
		CreatedAt: event.Timestamp,
	})
}

// Recent returns the actor's latest audit entries, newest first.
func (a *AuditService) Recent(ctx context.Context, actorID string, limit int) ([]domain.InboxEvent, error) {
	if a.repo == nil {
		return []domain.InboxEvent{}, nil
	}
	return a.repo.ListByActor(ctx, actorID, limit)
}

func payloadMap(payload interface{}) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
