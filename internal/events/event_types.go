package events

import (
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType = domain.InboxEventKind

const (
	EventSessionStarted         = domain.InboxEventSessionStarted
	EventSessionEnded           = domain.InboxEventSessionEnded
	EventInboxFetched           = domain.InboxEventFetched
	EventInboxFetchFailed       = domain.InboxEventFetchFailed
	EventRecordPatched          = domain.InboxEventRecordPatched
	EventChangeRequestSubmitted = domain.InboxEventChangeRequestSubmitted
)

// AllEventTypes lists every event the inbox emits.
var AllEventTypes = []EventType{
	EventSessionStarted,
	EventSessionEnded,
	EventInboxFetched,
	EventInboxFetchFailed,
	EventRecordPatched,
	EventChangeRequestSubmitted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Actor     Actor       `json:"actor"`
	RecordID  *string     `json:"record_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionStartedPayload payload.
type SessionStartedPayload struct {
	Roles           []string `json:"roles"`
	VisibleStatuses []string `json:"visible_statuses"`
}

// InboxFetchedPayload payload.
type InboxFetchedPayload struct {
	Total       int      `json:"total"`
	FailedRoles []string `json:"failed_roles,omitempty"`
	Partial     bool     `json:"partial"`
}

// InboxFetchFailedPayload payload.
type InboxFetchFailedPayload struct {
	FailedRoles []string `json:"failed_roles,omitempty"`
	Error       string   `json:"error"`
}

// RecordPatchedPayload payload.
type RecordPatchedPayload struct {
	Patch domain.ChangeRequestPatch `json:"patch"`
}

// ChangeRequestSubmittedPayload payload.
type ChangeRequestSubmittedPayload struct {
	Title  string        `json:"title"`
	Status domain.Status `json:"status"`
}
