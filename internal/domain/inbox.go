package domain

import "time"

// InboxAggregate is the merged, de-duplicated, entitlement-filtered inbox for one actor.
type InboxAggregate struct {
	Records         []ChangeRequest
	Total           int
	VisibleStatuses StatusSet
	// FailedRoles names the sources whose query failed during the fetch.
	FailedRoles []string
	// Pending holds local patches applied since the fetch, keyed by record id.
	Pending    map[string]ChangeRequestPatch
	SelectedID string
	FetchedAt  time.Time
}

// NewInboxAggregate builds an aggregate with Total derived from records.
func NewInboxAggregate(records []ChangeRequest, visible StatusSet, failedRoles []string, fetchedAt time.Time) *InboxAggregate {
	if records == nil {
		records = []ChangeRequest{}
	}
	return &InboxAggregate{
		Records:         records,
		Total:           len(records),
		VisibleStatuses: visible,
		FailedRoles:     failedRoles,
		Pending:         map[string]ChangeRequestPatch{},
		FetchedAt:       fetchedAt,
	}
}

// PartialFailure reports whether some sources failed while others succeeded.
func (a *InboxAggregate) PartialFailure() bool {
	return a != nil && len(a.FailedRoles) > 0
}

// IndexOf returns the position of the record with id, or -1.
func (a *InboxAggregate) IndexOf(id string) int {
	if a == nil {
		return -1
	}
	for i := range a.Records {
		if a.Records[i].ID == id {
			return i
		}
	}
	return -1
}

// Selected returns the selected record, if any.
func (a *InboxAggregate) Selected() (ChangeRequest, bool) {
	if a == nil || a.SelectedID == "" {
		return ChangeRequest{}, false
	}
	idx := a.IndexOf(a.SelectedID)
	if idx < 0 {
		return ChangeRequest{}, false
	}
	return a.Records[idx], true
}

// Clone returns a deep copy.
func (a *InboxAggregate) Clone() *InboxAggregate {
	if a == nil {
		return nil
	}
	out := *a
	out.Records = make([]ChangeRequest, len(a.Records))
	for i := range a.Records {
		out.Records[i] = a.Records[i].Clone()
	}
	out.FailedRoles = append([]string(nil), a.FailedRoles...)
	out.Pending = make(map[string]ChangeRequestPatch, len(a.Pending))
	for id, patch := range a.Pending {
		out.Pending[id] = patch
	}
	return &out
}

// InboxFilter narrows a snapshot for display. Empty fields match everything.
type InboxFilter struct {
	AssignedTo string
	Status     Status
	Priority   string
}

// Matches reports whether record passes the filter.
func (f InboxFilter) Matches(record ChangeRequest) bool {
	if f.AssignedTo != "" && NormalizeRoleName(record.AssignedTo) != NormalizeRoleName(f.AssignedTo) {
		return false
	}
	if f.Status != "" && record.Status != f.Status {
		return false
	}
	if f.Priority != "" && record.PriorityValue() != f.Priority {
		return false
	}
	return true
}
