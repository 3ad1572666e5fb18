package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/events"
	"github.com/spec-kit/dcr-inbox/internal/inbox"
	"github.com/spec-kit/dcr-inbox/internal/observability"
	apperrors "github.com/spec-kit/dcr-inbox/pkg/util"
)

// InboxFetcher builds an actor's inbox.
type InboxFetcher interface {
	FetchInbox(ctx context.Context, actor *domain.Actor, cred auth.Credential) (*domain.InboxAggregate, error)
}

// InboxDependencies bundles collaborators for the inbox service.
type InboxDependencies struct {
	Fetcher    InboxFetcher
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	IdleTTL    time.Duration
	Now        func() time.Time
}

// InboxService owns one view per session and runs fetches into it.
type InboxService struct {
	fetcher    InboxFetcher
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	idleTTL    time.Duration
	now        func() time.Time

	mu    sync.Mutex
	views map[string]*sessionView
	// ended remembers logged-out sessions so late requests cannot revive their views.
	ended map[string]time.Time
}

const defaultEndedRetention = 5 * time.Minute

// sessionView pairs a view with a context that is cancelled when the session ends.
type sessionView struct {
	view   *inbox.ViewState
	ctx    context.Context
	cancel context.CancelFunc
}

// NewInboxService constructs the service.
func NewInboxService(deps InboxDependencies) *InboxService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &InboxService{
		fetcher:    deps.Fetcher,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("inbox_service"),
		idleTTL:    deps.IdleTTL,
		now:        now,
		views:      make(map[string]*sessionView),
		ended:      make(map[string]time.Time),
	}
}

func (s *InboxService) viewFor(sessionID string) (*sessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ended := s.ended[sessionID]; ended {
		return nil, apperrors.NewSessionEnded()
	}
	sv, ok := s.views[sessionID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		sv = &sessionView{view: inbox.NewViewState(s.now), ctx: ctx, cancel: cancel}
		s.views[sessionID] = sv
	}
	return sv, nil
}

// Refresh fetches the inbox into the session's view and returns the resulting snapshot.
// A fetch that is superseded by a newer one, or outlived by its session, is discarded.
func (s *InboxService) Refresh(ctx context.Context, principal *auth.Principal) (inbox.Snapshot, error) {
	sv, err := s.viewFor(principal.Session.ID)
	if err != nil {
		return inbox.Snapshot{}, err
	}
	ticket := sv.view.Begin()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sv.ctx, cancel)
	defer stop()

	start := time.Now()
	agg, err := s.fetcher.FetchInbox(fetchCtx, principal.Actor, principal.Credential)
	elapsed := time.Since(start)

	if err != nil {
		var fetchErr *inbox.FetchError
		failed := []string(nil)
		if errors.As(err, &fetchErr) {
			failed = fetchErr.FailedSources
		}
		s.metrics.RecordInboxFetch(observability.FetchFailed, failed, elapsed)
		if !sv.view.Fail(ticket, err) {
			return s.superseded(sv)
		}
		s.publish(ctx, principal, events.EventInboxFetchFailed, nil, events.InboxFetchFailedPayload{
			FailedRoles: failed,
			Error:       err.Error(),
		})
		return inbox.Snapshot{}, apperrors.NewAllSourcesFailed(failed, err)
	}

	outcome := observability.FetchOK
	if agg.PartialFailure() {
		outcome = observability.FetchPartial
		s.logger.Warn("inbox partially loaded",
			zap.String("actor_id", principal.Actor.ID),
			zap.Strings("failed_roles", agg.FailedRoles))
	}
	s.metrics.RecordInboxFetch(outcome, agg.FailedRoles, elapsed)
	if !sv.view.Complete(ticket, agg) {
		return s.superseded(sv)
	}
	s.publish(ctx, principal, events.EventInboxFetched, nil, events.InboxFetchedPayload{
		Total:       agg.Total,
		FailedRoles: agg.FailedRoles,
		Partial:     agg.PartialFailure(),
	})
	return sv.view.Current(), nil
}

func (s *InboxService) superseded(sv *sessionView) (inbox.Snapshot, error) {
	if sv.view.Closed() {
		return inbox.Snapshot{}, apperrors.NewSessionEnded()
	}
	return sv.view.Current(), nil
}

// Current returns the session's view without fetching.
func (s *InboxService) Current(principal *auth.Principal) (inbox.Snapshot, error) {
	sv, err := s.viewFor(principal.Session.ID)
	if err != nil {
		return inbox.Snapshot{}, err
	}
	return sv.view.Current(), nil
}

// Select marks a record as selected in the session's view.
func (s *InboxService) Select(principal *auth.Principal, recordID string) (domain.ChangeRequest, error) {
	sv, err := s.viewFor(principal.Session.ID)
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	view := sv.view
	if err := view.Select(recordID); err != nil {
		return domain.ChangeRequest{}, mapViewError(err, recordID)
	}
	selected, _ := view.Current().Selected()
	return selected, nil
}

// Update applies a local patch to one record of the session's view.
func (s *InboxService) Update(ctx context.Context, principal *auth.Principal, recordID string, patch domain.ChangeRequestPatch) (domain.ChangeRequest, error) {
	if patch.IsEmpty() {
		return domain.ChangeRequest{}, apperrors.NewValidationError("patch changes nothing", nil)
	}
	sv, err := s.viewFor(principal.Session.ID)
	if err != nil {
		return domain.ChangeRequest{}, err
	}
	updated, err := sv.view.Update(recordID, patch)
	if err != nil {
		return domain.ChangeRequest{}, mapViewError(err, recordID)
	}
	s.publish(ctx, principal, events.EventRecordPatched, &recordID, events.RecordPatchedPayload{Patch: patch})
	return updated, nil
}

// EndSession cancels in-flight fetches for the session and drops its view.
// Later calls for the session fail with SESSION_ENDED.
func (s *InboxService) EndSession(sessionID string) {
	s.mu.Lock()
	s.ended[sessionID] = s.now()
	sv, ok := s.views[sessionID]
	delete(s.views, sessionID)
	s.mu.Unlock()
	if ok {
		closeView(sv)
	}
}

func closeView(sv *sessionView) {
	sv.view.Close()
	sv.cancel()
}

// PruneIdle drops views unused for longer than the idle TTL and returns how many were dropped.
// An idle session may come back; its view is rebuilt on the next request.
func (s *InboxService) PruneIdle() int {
	now := s.now()
	retention := s.idleTTL
	if retention <= 0 {
		retention = defaultEndedRetention
	}

	s.mu.Lock()
	for id, at := range s.ended {
		if now.Sub(at) > retention {
			delete(s.ended, id)
		}
	}
	var idle []*sessionView
	if s.idleTTL > 0 {
		cutoff := now.Add(-s.idleTTL)
		for id, sv := range s.views {
			if sv.view.IdleSince().Before(cutoff) {
				idle = append(idle, sv)
				delete(s.views, id)
			}
		}
	}
	s.mu.Unlock()

	for _, sv := range idle {
		closeView(sv)
	}
	return len(idle)
}

// ActiveViews returns the number of live session views.
func (s *InboxService) ActiveViews() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *InboxService) publish(ctx context.Context, principal *auth.Principal, eventType events.EventType, recordID *string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: principal.Session.ID,
		Actor:     events.Actor{ID: principal.Actor.ID, Username: principal.Actor.Username},
		RecordID:  recordID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func mapViewError(err error, recordID string) error {
	switch {
	case errors.Is(err, inbox.ErrRecordNotFound):
		return apperrors.NewNotFound("record", map[string]any{"id": recordID})
	case errors.Is(err, inbox.ErrViewClosed):
		return apperrors.NewSessionEnded()
	}
	return err
}
