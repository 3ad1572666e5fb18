package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	inboxFetches   map[string]int64
	sourceFailures map[string]int64
	fetchLatency   time.Duration
}

// MetricsSnapshot is a copy of the counters.
type MetricsSnapshot struct {
	Requests         map[string]int64 `json:"requests"`
	Errors           map[string]int64 `json:"errors"`
	InboxFetches     map[string]int64 `json:"inbox_fetches"`
	SourceFailures   map[string]int64 `json:"source_failures"`
	LastFetchLatency string           `json:"last_fetch_latency"`
}

// Inbox fetch outcomes.
const (
	FetchOK      = "ok"
	FetchPartial = "partial"
	FetchFailed  = "failed"
)

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
		inboxFetches:   make(map[string]int64),
		sourceFailures: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordInboxFetch counts one fetch by outcome and each failed source by name.
func (m *Metrics) RecordInboxFetch(outcome string, failedSources []string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboxFetches[outcome]++
	for _, src := range failedSources {
		m.sourceFailures[src]++
	}
	m.fetchLatency = duration
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:         copyCounts(m.requestCount),
		Errors:           copyCounts(m.errorCount),
		InboxFetches:     copyCounts(m.inboxFetches),
		SourceFailures:   copyCounts(m.sourceFailures),
		LastFetchLatency: m.fetchLatency.String(),
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
