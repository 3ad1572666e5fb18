package inbox

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecordNotFound is returned by ViewState when the target id is not in the aggregate.
var ErrRecordNotFound = errors.New("inbox: record not found")

// ErrViewClosed is returned when the view's session has ended.
var ErrViewClosed = errors.New("inbox: view closed")

// FetchErrorKind classifies a failed fetch.
type FetchErrorKind string

// KindAllSourcesFailed means every per-role query failed, or no actor was supplied.
const KindAllSourcesFailed FetchErrorKind = "all_sources_failed"

// FetchError is the only error FetchInbox returns.
type FetchError struct {
	Kind          FetchErrorKind
	FailedSources []string
	Err           error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("inbox: %s", e.Kind)
	if len(e.FailedSources) > 0 {
		msg += " [" + strings.Join(e.FailedSources, ", ") + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// SourceError is one source's failure inside a fan-out.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("inbox: source %q: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
