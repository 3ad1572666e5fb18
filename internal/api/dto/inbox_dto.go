package dto

import (
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
	"github.com/spec-kit/dcr-inbox/internal/inbox"
)

// InboxResponse is a view snapshot as returned to clients.
type InboxResponse struct {
	State           inbox.LoadState                      `json:"state"`
	Records         []domain.ChangeRequest               `json:"records"`
	Total           int                                  `json:"total"`
	VisibleStatuses []string                             `json:"visible_statuses"`
	FailedRoles     []string                             `json:"failed_roles"`
	PartialFailure  bool                                 `json:"partial_failure"`
	SelectedID      string                               `json:"selected_id,omitempty"`
	Pending         map[string]domain.ChangeRequestPatch `json:"pending,omitempty"`
	FetchedAt       *time.Time                           `json:"fetched_at,omitempty"`
	Error           string                               `json:"error,omitempty"`
}

// NewInboxResponse maps a snapshot. When filter is non-nil only matching records are
// listed; Total stays the size of the whole aggregate.
func NewInboxResponse(snap inbox.Snapshot, filter *domain.InboxFilter) InboxResponse {
	resp := InboxResponse{
		State:           snap.State,
		Records:         []domain.ChangeRequest{},
		VisibleStatuses: []string{},
		FailedRoles:     []string{},
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	agg := snap.Aggregate
	if agg == nil {
		return resp
	}
	if filter != nil {
		resp.Records = snap.Filter(*filter)
	} else {
		resp.Records = agg.Records
	}
	resp.Total = agg.Total
	resp.VisibleStatuses = agg.VisibleStatuses.Strings()
	if agg.FailedRoles != nil {
		resp.FailedRoles = agg.FailedRoles
	}
	resp.PartialFailure = agg.PartialFailure()
	resp.SelectedID = agg.SelectedID
	if len(agg.Pending) > 0 {
		resp.Pending = agg.Pending
	}
	fetchedAt := agg.FetchedAt
	resp.FetchedAt = &fetchedAt
	return resp
}

// PatchRecordRequest is a local edit to one inbox record. Absent fields are untouched.
type PatchRecordRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Status        *domain.Status       `json:"status"`
	AssignedTo    *string              `json:"assigned_to"`
	Priority      *domain.CatalogEntry `json:"priority"`
	ChangeType    *domain.CatalogEntry `json:"change_type"`
	ScopeOfChange *string              `json:"scope_of_change"`
	DueDate       *time.Time           `json:"due_date"`
	Participants  []string             `json:"participants"`
	Reviewers     []string             `json:"reviewers"`
}

// ToPatch converts the request into a domain patch.
func (r PatchRecordRequest) ToPatch() domain.ChangeRequestPatch {
	return domain.ChangeRequestPatch{
		Title:         r.Title,
		Description:   r.Description,
		Status:        r.Status,
		AssignedTo:    r.AssignedTo,
		Priority:      r.Priority,
		ChangeType:    r.ChangeType,
		ScopeOfChange: r.ScopeOfChange,
		DueDate:       r.DueDate,
		Participants:  r.Participants,
		Reviewers:     r.Reviewers,
	}
}

// ActivityResponse is one audit trail entry.
type ActivityResponse struct {
	ID        string                `json:"id"`
	Kind      domain.InboxEventKind `json:"kind"`
	SessionID string                `json:"session_id"`
	RecordID  *string               `json:"record_id,omitempty"`
	Payload   map[string]any        `json:"payload"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewActivityResponse maps audit events.
func NewActivityResponse(events []domain.InboxEvent) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ActivityResponse{
			ID:        e.ID,
			Kind:      e.Kind,
			SessionID: e.SessionID,
			RecordID:  e.RecordID,
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
