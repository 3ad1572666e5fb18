package backend

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// WhoAmIResponse is the backend's description of the authenticated user.
type WhoAmIResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []RoleRef `json:"roles"`
}

// RoleRef is a role as listed by whoami.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Actor maps the response to a domain actor with role kinds resolved.
func (w *WhoAmIResponse) Actor() *domain.Actor {
	roles := make([]domain.Role, 0, len(w.Roles))
	for _, r := range w.Roles {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		roles = append(roles, domain.NewRole(r.ID, r.Name))
	}
	return &domain.Actor{
		ID:       w.ID,
		Username: w.Username,
		Name:     w.Name,
		Email:    w.Email,
		Roles:    roles,
	}
}

// flexTime accepts RFC 3339 timestamps, plain dates and empty strings.
type flexTime struct {
	time.Time
}

var flexLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		return nil
	}
	for _, layout := range flexLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	out := t.Time
	return &out
}

// catalogValue accepts either a catalog entry object or a bare string.
type catalogValue struct {
	entry *domain.CatalogEntry
}

func (c *catalogValue) UnmarshalJSON(data []byte) error {
	var entry domain.CatalogEntry
	if err := json.Unmarshal(data, &entry); err == nil {
		if entry.ID != "" || entry.Value != "" || entry.Label != "" {
			c.entry = &entry
		}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil && raw != "" {
		c.entry = &domain.CatalogEntry{Label: raw, Value: raw}
	}
	return nil
}

type apiCreated struct {
	On flexTime       `json:"on"`
	By domain.UserRef `json:"by"`
}

type apiRecord struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   string        `json:"status"`
	Priority *catalogValue `json:"priority"`
	Created  apiCreated    `json:"created"`
	Data     apiRecordData `json:"data"`
}

type apiRecordData struct {
	AssignedTo          string        `json:"assignedto"`
	ChangeRequestNumber int           `json:"changeRequestNumber"`
	ChangeRequestStatus string        `json:"changeRequestStatus"`
	Description         string        `json:"description"`
	ScopeOfChange       string        `json:"scopeOfChange"`
	ChangeAuthority     string        `json:"changeAuthority"`
	ReleaseAuthority    string        `json:"releaseAuthority"`
	ChangePriority      *catalogValue `json:"changePriority"`
	ChangeType          *catalogValue `json:"changeType"`
	ReasonForChange     *catalogValue `json:"reasonForChange"`
	DueDateComplete     *flexTime     `json:"dueDateComplete"`
	Participants        []string      `json:"participants"`
	Contributors        string        `json:"contributors"`
	Reviewers           string        `json:"reviewers"`
	Preapproved         bool          `json:"preapproved"`
	PrincipleContrib    string        `json:"principleContributor"`
	RelatedFolder       string        `json:"relatedFolder"`
	RejectionComments   string        `json:"rejectionReasonComments"`
}

func (r apiRecord) toDomain() domain.ChangeRequest {
	status := r.Status
	if status == "" {
		status = r.Data.ChangeRequestStatus
	}
	priority := entryOf(r.Data.ChangePriority)
	if priority == nil {
		priority = entryOf(r.Priority)
	}
	return domain.ChangeRequest{
		ID:                r.ID,
		Number:            r.Data.ChangeRequestNumber,
		Title:             r.Title,
		Description:       r.Data.Description,
		Status:            domain.Status(status),
		AssignedTo:        r.Data.AssignedTo,
		Priority:          priority,
		ChangeType:        entryOf(r.Data.ChangeType),
		ReasonForChange:   entryOf(r.Data.ReasonForChange),
		ChangeAuthority:   r.Data.ChangeAuthority,
		ReleaseAuthority:  r.Data.ReleaseAuthority,
		ScopeOfChange:     r.Data.ScopeOfChange,
		Preapproved:       r.Data.Preapproved,
		CreatedAt:         r.Created.On.Time,
		CreatedBy:         r.Created.By,
		DueDate:           r.Data.DueDateComplete.ptr(),
		Participants:      nonNil(r.Data.Participants),
		Contributors:      splitList(r.Data.Contributors),
		Reviewers:         splitList(r.Data.Reviewers),
		PrincipalContrib:  r.Data.PrincipleContrib,
		RelatedFolder:     r.Data.RelatedFolder,
		RejectionComments: r.Data.RejectionComments,
	}
}

type apiDocument struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Created apiCreated      `json:"created"`
	Data    apiDocumentData `json:"data"`
}

type apiDocumentData struct {
	Name           string        `json:"name"`
	Version        int           `json:"version"`
	Classification string        `json:"classification"`
	Category       *catalogValue `json:"category"`
	Type           *catalogValue `json:"type"`
	DocumentStatus *catalogValue `json:"documentStatus"`
	ReviewDate     *flexTime     `json:"reviewdate"`
}

func (d apiDocument) toDomain() domain.Document {
	return domain.Document{
		ID:             d.ID,
		Title:          d.Title,
		Name:           d.Data.Name,
		Version:        d.Data.Version,
		Classification: d.Data.Classification,
		Category:       entryOf(d.Data.Category),
		Type:           entryOf(d.Data.Type),
		DocumentStatus: entryOf(d.Data.DocumentStatus),
		CreatedAt:      d.Created.On.Time,
		CreatedBy:      d.Created.By,
		ReviewDate:     d.Data.ReviewDate.ptr(),
	}
}

type apiOrganization struct {
	Children []domain.UserRef `json:"children"`
}

type apiTypeDefinition struct {
	Elements []apiTypeElement `json:"elements"`
}

type apiTypeElement struct {
	Name       string         `json:"name"`
	CodeSystem *apiCodeSystem `json:"codesystem"`
}

type apiCodeSystem struct {
	Entries []domain.CatalogEntry `json:"entries"`
}

func entryOf(v *catalogValue) *domain.CatalogEntry {
	if v == nil {
		return nil
	}
	return v.entry
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
