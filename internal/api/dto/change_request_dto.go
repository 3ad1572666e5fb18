package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// CreateChangeRequestRequest payload.
type CreateChangeRequestRequest struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Status           domain.Status `json:"status"`
	ChangeAuthority  string        `json:"change_authority"`
	ReleaseAuthority string        `json:"release_authority"`
	ChangePriority   string        `json:"change_priority"`
	ChangeType       string        `json:"change_type"`
	ReasonForChange  string        `json:"reason_for_change"`
	ReasonOther      string        `json:"reason_for_change_other"`
	ScopeOfChange    string        `json:"scope_of_change"`
	DueDate          *time.Time    `json:"due_date"`
	Participants     []string      `json:"participants"`
	Contributors     []string      `json:"contributors"`
	Reviewers        []string      `json:"reviewers"`
	Preapproved      bool          `json:"preapproved"`
	RelatedFolder    string        `json:"related_folder"`
	DocumentID       string        `json:"document_id"`
}

// ToDraft converts the request into the DMS create payload.
func (r CreateChangeRequestRequest) ToDraft() domain.ChangeRequestDraft {
	return domain.ChangeRequestDraft{
		Title:            r.Title,
		Description:      r.Description,
		Status:           r.Status,
		ChangeAuthority:  r.ChangeAuthority,
		ReleaseAuthority: r.ReleaseAuthority,
		ChangePriority:   r.ChangePriority,
		ChangeType:       r.ChangeType,
		ReasonForChange:  r.ReasonForChange,
		ReasonOther:      r.ReasonOther,
		ScopeOfChange:    r.ScopeOfChange,
		DueDate:          r.DueDate,
		Participants:     r.Participants,
		Contributors:     strings.Join(r.Contributors, ","),
		Reviewers:        strings.Join(r.Reviewers, ","),
		Preapproved:      r.Preapproved,
		RelatedFolder:    r.RelatedFolder,
		DocumentID:       r.DocumentID,
	}
}
