package inbox

import (
	"sync"
	"time"

	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// LoadState is the lifecycle of a view's aggregate.
type LoadState string

const (
	StateEmpty     LoadState = "empty"
	StateLoading   LoadState = "loading"
	StatePopulated LoadState = "populated"
	StateError     LoadState = "error"
)

// Ticket identifies one fetch. Only the latest ticket may publish a result.
type Ticket uint64

// Snapshot is a point-in-time copy of a view.
type Snapshot struct {
	State     LoadState
	Aggregate *domain.InboxAggregate
	Err       error
}

// Selected returns the selected record, if any.
func (s Snapshot) Selected() (domain.ChangeRequest, bool) {
	return s.Aggregate.Selected()
}

// Filter returns the records that pass f, in aggregate order.
func (s Snapshot) Filter(f domain.InboxFilter) []domain.ChangeRequest {
	out := []domain.ChangeRequest{}
	if s.Aggregate == nil {
		return out
	}
	for _, rec := range s.Aggregate.Records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ViewState holds one session's current inbox. All methods are safe for concurrent use;
// writes are serialized so the last call wins.
type ViewState struct {
	mu         sync.Mutex
	state      LoadState
	aggregate  *domain.InboxAggregate
	err        error
	generation Ticket
	closed     bool
	touched    time.Time
	now        func() time.Time
}

// NewViewState returns an empty view.
func NewViewState(now func() time.Time) *ViewState {
	if now == nil {
		now = time.Now
	}
	return &ViewState{state: StateEmpty, now: now, touched: now()}
}

// Begin starts a fetch and supersedes any fetch still in flight.
func (v *ViewState) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	if !v.closed {
		v.state = StateLoading
		v.touched = v.now()
	}
	return v.generation
}

// Complete publishes agg if t is still the latest fetch and the view is open.
// The previous selection survives when its record is still present.
func (v *ViewState) Complete(t Ticket, agg *domain.InboxAggregate) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.current(t) || agg == nil {
		return false
	}
	next := agg.Clone()
	if v.aggregate != nil && v.aggregate.SelectedID != "" && next.IndexOf(v.aggregate.SelectedID) >= 0 {
		next.SelectedID = v.aggregate.SelectedID
	}
	v.aggregate = next
	v.err = nil
	v.state = StatePopulated
	return true
}

// Fail records err for fetch t. The last good aggregate is kept for display.
func (v *ViewState) Fail(t Ticket, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.current(t) {
		return false
	}
	v.err = err
	v.state = StateError
	return true
}

func (v *ViewState) current(t Ticket) bool {
	return !v.closed && t == v.generation
}

// Select marks the record with id as selected. An empty id clears the selection.
func (v *ViewState) Select(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	v.touched = v.now()
	if id == "" {
		if v.aggregate != nil {
			v.aggregate.SelectedID = ""
		}
		return nil
	}
	if v.aggregate.IndexOf(id) < 0 {
		return ErrRecordNotFound
	}
	v.aggregate.SelectedID = id
	return nil
}

// Update applies patch to the record with id and remembers it as pending. It never adds
// records and never talks to the backend. Applying the same patch twice is a no-op.
func (v *ViewState) Update(id string, patch domain.ChangeRequestPatch) (domain.ChangeRequest, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return domain.ChangeRequest{}, ErrViewClosed
	}
	idx := v.aggregate.IndexOf(id)
	if idx < 0 {
		return domain.ChangeRequest{}, ErrRecordNotFound
	}
	v.touched = v.now()

	updated := patch.Apply(v.aggregate.Records[idx])
	v.aggregate.Records[idx] = updated
	v.aggregate.Pending[id] = v.aggregate.Pending[id].Merge(patch)
	return updated.Clone(), nil
}

// Current returns a copy of the view.
func (v *ViewState) Current() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{State: v.state, Aggregate: v.aggregate.Clone(), Err: v.err}
}

// Close ends the view. Pending and future fetch results are discarded.
func (v *ViewState) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

// Closed reports whether Close was called.
func (v *ViewState) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// IdleSince returns the last time the view was used.
func (v *ViewState) IdleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.touched
}
