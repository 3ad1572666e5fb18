package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/config"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// DocumentBackend is the part of the DMS client used for authoring change requests.
type DocumentBackend interface {
	ListDocuments(ctx context.Context, cred auth.Credential, docType string) ([]domain.Document, error)
	CatalogEntries(ctx context.Context, cred auth.Credential, typeName, element string) ([]domain.CatalogEntry, error)
	CreateChangeRequest(ctx context.Context, cred auth.Credential, recordType string, draft domain.ChangeRequestDraft) (*domain.ChangeRequest, error)
	ListRoles(ctx context.Context, cred auth.Credential) ([]domain.Role, error)
	ListUsers(ctx context.Context, cred auth.Credential, orgID string) ([]domain.UserRef, error)
}

// ChangeRequestDependencies bundles collaborators for the change request service.
type ChangeRequestDependencies struct {
	Backend    DocumentBackend
	Config     config.BackendConfig
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ChangeRequestService lists documents and catalogs and submits new change requests.
type ChangeRequestService struct {
	backend    DocumentBackend
	cfg        config.BackendConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewChangeRequestService constructs the service.
func NewChangeRequestService(deps ChangeRequestDependencies) *ChangeRequestService {
	return &ChangeRequestService{
		backend:    deps.Backend,
		cfg:        deps.Config,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger.Named("change_requests"),
	}
}

// ListDocuments returns the published documents a change request can target.
func (s *ChangeRequestService) ListDocuments(ctx context.Context, principal *auth.Principal) ([]domain.Document, error) {
	docs, err := s.backend.ListDocuments(ctx, principal.Credential, s.cfg.DocumentType)
	if err != nil {
		return nil, mapBackendError("documents", err)
	}
	return docs, nil
}

// Dropdown returns the catalog entries for one change request field.
func (s *ChangeRequestService) Dropdown(ctx context.Context, principal *auth.Principal, element string) ([]domain.CatalogEntry, error) {
	element = strings.TrimSpace(element)
	if element == "" {
		return nil, apperrors.NewValidationError("type is required", nil)
	}
	entries, err := s.backend.CatalogEntries(ctx, principal.Credential, s.cfg.ChangeRequestType, element)
	if err != nil {
		return nil, mapBackendError("dropdown "+element, err)
	}
	return entries, nil
}

// Roles lists the organization roles a request can be routed to.
func (s *ChangeRequestService) Roles(ctx context.Context, principal *auth.Principal) ([]domain.Role, error) {
	roles, err := s.backend.ListRoles(ctx, principal.Credential)
	if err != nil {
		return nil, mapBackendError("roles", err)
	}
	return roles, nil
}

// Users lists the people who can be named as assignee, reviewer or participant.
func (s *ChangeRequestService) Users(ctx context.Context, principal *auth.Principal) ([]domain.UserRef, error) {
	if s.cfg.OrganizationID == "" {
		return nil, apperrors.NewNotConfigured("user directory")
	}
	users, err := s.backend.ListUsers(ctx, principal.Credential, s.cfg.OrganizationID)
	if err != nil {
		return nil, mapBackendError("organization", err)
	}
	return users, nil
}

// Submit creates a change request in the DMS. New requests start in document controller review.
func (s *ChangeRequestService) Submit(ctx context.Context, principal *auth.Principal, draft domain.ChangeRequestDraft) (*domain.ChangeRequest, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if draft.Status == "" {
		draft.Status = domain.StatusDocumentControllerReview
	}
	if draft.Participants == nil {
		draft.Participants = []string{}
	}

	created, err := s.backend.CreateChangeRequest(ctx, principal.Credential, s.cfg.ChangeRequestType, draft)
	if err != nil {
		return nil, mapBackendError("change request", err)
	}

	s.logger.Info("change request submitted",
		zap.String("id", created.ID),
		zap.String("actor_id", principal.Actor.ID))
	if s.dispatcher != nil {
		recordID := created.ID
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventChangeRequestSubmitted,
			SessionID: principal.Session.ID,
			Actor:     events.Actor{ID: principal.Actor.ID, Username: principal.Actor.Username},
			RecordID:  &recordID,
			Timestamp: time.Now(),
			Payload:   events.ChangeRequestSubmittedPayload{Title: created.Title, Status: created.Status},
		})
	}
	return created, nil
}
