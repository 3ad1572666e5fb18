package domain

import "time"

// InboxEventKind captures what happened in an audit entry.
type InboxEventKind string

const (
	InboxEventSessionStarted         InboxEventKind = "session_started"
	InboxEventSessionEnded           InboxEventKind = "session_ended"
	InboxEventFetched                InboxEventKind = "inbox_fetched"
	InboxEventFetchFailed            InboxEventKind = "inbox_fetch_failed"
	InboxEventRecordPatched          InboxEventKind = "record_patched"
	InboxEventChangeRequestSubmitted InboxEventKind = "change_request_submitted"
)

// InboxEvent is an immutable audit trail entry.
type InboxEvent struct {
	ID        string
	SessionID string
	ActorID   string
	Kind      InboxEventKind
	RecordID  *string
	Payload   map[string]any
	CreatedAt time.Time
}
