package domain

import "sort"

// Status is a workflow status. Comparison is case-sensitive.
type Status string

const (
	StatusComplianceAuthorityReview Status = "compliance authority review"
	StatusDocumentControllerReview  Status = "document controller review"
	StatusManagerReview             Status = "manager review"
	StatusPendingApproval           Status = "pending approval"

	// StatusAll is the wildcard sentinel granted to administrators.
	StatusAll Status = "all"
)

// StatusSet is an immutable set of statuses, or the wildcard.
type StatusSet struct {
	wildcard bool
	members  map[Status]struct{}
}

// NewStatusSet builds a set from the given statuses. StatusAll produces the wildcard.
func NewStatusSet(statuses ...Status) StatusSet {
	set := StatusSet{}
	for _, status := range statuses {
		if status == StatusAll {
			return WildcardStatusSet()
		}
		if set.members == nil {
			set.members = make(map[Status]struct{}, len(statuses))
		}
		set.members[status] = struct{}{}
	}
	return set
}

// WildcardStatusSet returns the "all statuses" set.
func WildcardStatusSet() StatusSet {
	return StatusSet{wildcard: true}
}

// Union returns a set holding members of both sets. Wildcard absorbs everything.
func (s StatusSet) Union(other StatusSet) StatusSet {
	if s.wildcard || other.wildcard {
		return WildcardStatusSet()
	}
	return NewStatusSet(append(s.Slice(), other.Slice()...)...)
}

// IsWildcard reports whether the set grants every status.
func (s StatusSet) IsWildcard() bool { return s.wildcard }

// IsEmpty reports whether the set grants nothing.
func (s StatusSet) IsEmpty() bool { return !s.wildcard && len(s.members) == 0 }

// Len returns the number of explicit members; the wildcard has none.
func (s StatusSet) Len() int { return len(s.members) }

// Contains reports whether status is granted.
func (s StatusSet) Contains(status Status) bool {
	if s.wildcard {
		return true
	}
	_, ok := s.members[status]
	return ok
}

// Slice returns the members sorted. The wildcard renders as [StatusAll].
func (s StatusSet) Slice() []Status {
	if s.wildcard {
		return []Status{StatusAll}
	}
	out := make([]Status, 0, len(s.members))
	for status := range s.members {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns Slice as plain strings.
func (s StatusSet) Strings() []string {
	statuses := s.Slice()
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
