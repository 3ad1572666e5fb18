// Package inbox builds an actor's merged inbox from per-role backend queries and
// holds the per-session view of it.
package inbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/backend"
	"github.com/spec-kit/dcr-inbox/internal/config"
	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/visibility"
)

const wildcardSource = "all"

// RecordQuerier is the backend call the aggregator fans out over.
type RecordQuerier interface {
	QueryRecords(ctx context.Context, cred auth.Credential, q backend.Query) ([]domain.ChangeRequest, error)
}

// AggregatorDependencies wires an Aggregator.
type AggregatorDependencies struct {
	Querier    RecordQuerier
	RecordType string
	Inbox      config.InboxConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// Aggregator fans out one query per entitled role and merges the results.
type Aggregator struct {
	querier    RecordQuerier
	recordType string
	strategy   config.QueryStrategy
	timeout    time.Duration
	pageSize   int
	maxPages   int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAggregator constructs an aggregator.
func NewAggregator(deps AggregatorDependencies) *Aggregator {
	cfg := deps.Inbox
	strategy := cfg.QueryStrategy
	if strategy == "" {
		strategy = config.QueryByStatus
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		querier:    deps.Querier,
		recordType: deps.RecordType,
		strategy:   strategy,
		timeout:    timeout,
		pageSize:   cfg.PageSize,
		maxPages:   maxPages,
		logger:     deps.Logger.Named("inbox"),
		now:        now,
	}
}

type source struct {
	name  string
	query backend.Query
}

type sourceResult struct {
	records []domain.ChangeRequest
	err     error
}

// FetchInbox returns the actor's inbox. Sources that fail are reported in FailedRoles;
// only when every source fails is an error returned. The actor is never modified.
func (a *Aggregator) FetchInbox(ctx context.Context, actor *domain.Actor, cred auth.Credential) (*domain.InboxAggregate, error) {
	if actor == nil {
		return nil, &FetchError{Kind: KindAllSourcesFailed, Err: errors.New("no actor")}
	}

	visible := visibility.VisibleStatuses(actor.Roles)
	if visible.IsEmpty() {
		a.logger.Debug("actor has no visible statuses", zap.String("actor_id", actor.ID))
		return domain.NewInboxAggregate(nil, visible, nil, a.now()), nil
	}

	sources := a.plan(actor, visible)
	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			records, err := a.runSource(ctx, cred, src.query)
			results[i] = sourceResult{records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		failed  []string
		lastErr error
	)
	for i, res := range results {
		if res.err != nil {
			failed = append(failed, sources[i].name)
			lastErr = &SourceError{Source: sources[i].name, Err: res.err}
			a.logger.Warn("inbox source failed",
				zap.String("actor_id", actor.ID),
				zap.String("source", sources[i].name),
				zap.Error(res.err))
		}
	}
	if len(failed) == len(sources) {
		return nil, &FetchError{Kind: KindAllSourcesFailed, FailedSources: failed, Err: lastErr}
	}

	records := a.merge(results, visible)
	a.logger.Debug("inbox fetched",
		zap.String("actor_id", actor.ID),
		zap.Int("sources", len(sources)),
		zap.Int("failed", len(failed)),
		zap.Int("records", len(records)))
	return domain.NewInboxAggregate(records, visible, failed, a.now()), nil
}

// plan lists the sources to query, in deterministic order.
func (a *Aggregator) plan(actor *domain.Actor, visible domain.StatusSet) []source {
	if visible.IsWildcard() {
		return []source{{name: wildcardSource, query: backend.Query{Type: a.recordType}}}
	}

	var (
		sources []source
		seen    = map[string]struct{}{}
	)
	for _, role := range domain.SortedRoles(actor.Roles) {
		kind := role.Kind
		if kind == "" {
			kind = domain.ParseRoleKind(role.Name)
		}
		granted := visibility.StatusesFor(kind)
		if granted.IsEmpty() {
			continue
		}

		q := backend.Query{Type: a.recordType}
		var key string
		switch a.strategy {
		case config.QueryByAssignee:
			key = domain.NormalizeRoleName(role.Name)
			q.AssignedTo = role.Name
		default:
			key = string(kind)
			q.Statuses = granted.Slice()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sources = append(sources, source{name: role.Name, query: q})
	}
	return sources
}

// runSource pages through one query under its own timeout. Any page failing fails the source.
func (a *Aggregator) runSource(ctx context.Context, cred auth.Credential, q backend.Query) ([]domain.ChangeRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if a.pageSize <= 0 {
		q.Limit = -1
		return a.querier.QueryRecords(ctx, cred, q)
	}

	var out []domain.ChangeRequest
	q.Limit = a.pageSize
	for page := 0; page < a.maxPages; page++ {
		q.Offset = page * a.pageSize
		records, err := a.querier.QueryRecords(ctx, cred, q)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		if len(records) < a.pageSize {
			return out, nil
		}
	}
	a.logger.Warn("inbox source truncated at page limit",
		zap.Int("max_pages", a.maxPages),
		zap.Int("page_size", a.pageSize))
	return out, nil
}

// merge concatenates successful results in source order, drops records outside the
// visible set and keeps the first occurrence of each id.
func (a *Aggregator) merge(results []sourceResult, visible domain.StatusSet) []domain.ChangeRequest {
	var (
		out     []domain.ChangeRequest
		seen    = map[string]struct{}{}
		dropped int
	)
	for _, res := range results {
		if res.err != nil {
			continue
		}
		for _, rec := range res.records {
			if rec.ID == "" || !visible.Contains(rec.Status) {
				dropped++
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	if dropped > 0 {
		a.logger.Info("records outside visibility dropped", zap.Int("count", dropped))
	}
	return out
}
