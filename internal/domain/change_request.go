package domain

import "time"

// CatalogEntry is a code-system value from the DMS dropdown catalog.
type CatalogEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// UserRef references a DMS user.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ChangeRequest is the read projection of a change request record owned by the DMS.
type ChangeRequest struct {
	ID                string        `json:"id"`
	Number            int           `json:"number"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Status            Status        `json:"status"`
	AssignedTo        string        `json:"assigned_to"`
	Priority          *CatalogEntry `json:"priority,omitempty"`
	ChangeType        *CatalogEntry `json:"change_type,omitempty"`
	ReasonForChange   *CatalogEntry `json:"reason_for_change,omitempty"`
	ChangeAuthority   string        `json:"change_authority,omitempty"`
	ReleaseAuthority  string        `json:"release_authority,omitempty"`
	ScopeOfChange     string        `json:"scope_of_change,omitempty"`
	Preapproved       bool          `json:"preapproved"`
	CreatedAt         time.Time     `json:"created_at"`
	CreatedBy         UserRef       `json:"created_by"`
	DueDate           *time.Time    `json:"due_date,omitempty"`
	Participants      []string      `json:"participants"`
	Contributors      []string      `json:"contributors"`
	Reviewers         []string      `json:"reviewers"`
	PrincipalContrib  string        `json:"principal_contributor,omitempty"`
	RelatedFolder     string        `json:"related_folder,omitempty"`
	RejectionComments string        `json:"rejection_comments,omitempty"`
}

// PriorityValue returns the priority code or empty.
func (c ChangeRequest) PriorityValue() string {
	if c.Priority == nil {
		return ""
	}
	return c.Priority.Value
}

// Clone returns a deep copy safe to hand out of a locked structure.
func (c ChangeRequest) Clone() ChangeRequest {
	out := c
	out.Priority = cloneEntry(c.Priority)
	out.ChangeType = cloneEntry(c.ChangeType)
	out.ReasonForChange = cloneEntry(c.ReasonForChange)
	if c.DueDate != nil {
		due := *c.DueDate
		out.DueDate = &due
	}
	out.Participants = cloneStrings(c.Participants)
	out.Contributors = cloneStrings(c.Contributors)
	out.Reviewers = cloneStrings(c.Reviewers)
	return out
}

// ChangeRequestPatch is a local optimistic edit. Nil fields are left untouched.
type ChangeRequestPatch struct {
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Status        *Status       `json:"status,omitempty"`
	AssignedTo    *string       `json:"assigned_to,omitempty"`
	Priority      *CatalogEntry `json:"priority,omitempty"`
	ChangeType    *CatalogEntry `json:"change_type,omitempty"`
	ScopeOfChange *string       `json:"scope_of_change,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Participants  []string      `json:"participants,omitempty"`
	Reviewers     []string      `json:"reviewers,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ChangeRequestPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.AssignedTo == nil &&
		p.Priority == nil && p.ChangeType == nil && p.ScopeOfChange == nil && p.DueDate == nil &&
		p.Participants == nil && p.Reviewers == nil
}

// Apply returns a copy of record with the patch fields overlaid. The id never changes.
func (p ChangeRequestPatch) Apply(record ChangeRequest) ChangeRequest {
	out := record.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.AssignedTo != nil {
		out.AssignedTo = *p.AssignedTo
	}
	if p.Priority != nil {
		out.Priority = cloneEntry(p.Priority)
	}
	if p.ChangeType != nil {
		out.ChangeType = cloneEntry(p.ChangeType)
	}
	if p.ScopeOfChange != nil {
		out.ScopeOfChange = *p.ScopeOfChange
	}
	if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.Participants != nil {
		out.Participants = cloneStrings(p.Participants)
	}
	if p.Reviewers != nil {
		out.Reviewers = cloneStrings(p.Reviewers)
	}
	return out
}

// Merge combines two patches; fields set in next win.
func (p ChangeRequestPatch) Merge(next ChangeRequestPatch) ChangeRequestPatch {
	out := p
	if next.Title != nil {
		out.Title = next.Title
	}
	if next.Description != nil {
		out.Description = next.Description
	}
	if next.Status != nil {
		out.Status = next.Status
	}
	if next.AssignedTo != nil {
		out.AssignedTo = next.AssignedTo
	}
	if next.Priority != nil {
		out.Priority = next.Priority
	}
	if next.ChangeType != nil {
		out.ChangeType = next.ChangeType
	}
	if next.ScopeOfChange != nil {
		out.ScopeOfChange = next.ScopeOfChange
	}
	if next.DueDate != nil {
		out.DueDate = next.DueDate
	}
	if next.Participants != nil {
		out.Participants = next.Participants
	}
	if next.Reviewers != nil {
		out.Reviewers = next.Reviewers
	}
	return out
}

// ChangeRequestDraft is the payload for creating a change request in the DMS.
type ChangeRequestDraft struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           Status     `json:"changeRequestStatus"`
	ChangeAuthority  string     `json:"changeAuthority"`
	ReleaseAuthority string     `json:"releaseAuthority"`
	ChangePriority   string     `json:"changePriority"`
	ChangeType       string     `json:"changeType"`
	ReasonForChange  string     `json:"reasonForChange"`
	ReasonOther      string     `json:"reasonForChangeOther,omitempty"`
	ScopeOfChange    string     `json:"scopeOfChange"`
	DueDate          *time.Time `json:"dueDateComplete,omitempty"`
	Participants     []string   `json:"participants"`
	Contributors     string     `json:"contributors"`
	Reviewers        string     `json:"reviewers"`
	Preapproved      bool       `json:"preapproved"`
	RelatedFolder    string     `json:"relatedFolder,omitempty"`
	DocumentID       string     `json:"identity,omitempty"`
}

func cloneEntry(entry *CatalogEntry) *CatalogEntry {
	if entry == nil {
		return nil
	}
	out := *entry
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
