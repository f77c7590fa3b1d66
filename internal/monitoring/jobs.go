package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// JobSummary describes the run history of one background job.
type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastError           string        `json:"last_error,omitempty"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	LastDuration        time.Duration `json:"last_duration"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	TotalRuns           uint64        `json:"total_runs"`
}

// JobTracker records background job outcomes for the maintenance probe.
type JobTracker struct {
	mu    sync.Mutex
	jobs  map[string]*JobSummary
	clock clockwork.Clock
}

// NewJobTracker constructs an empty tracker. A nil clock uses the real clock.
func NewJobTracker(clock clockwork.Clock) *JobTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JobTracker{jobs: make(map[string]*JobSummary), clock: clock}
}

// Register makes a job visible before its first run.
func (t *JobTracker) Register(job string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.jobs[job]; !ok {
		t.jobs[job] = &JobSummary{Job: job}
	}
}

// Record stores the outcome of one run. A nil err counts as success.
func (t *JobTracker) Record(job string, err error, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.jobs[job]
	if !ok {
		entry = &JobSummary{Job: job}
		t.jobs[job] = entry
	}
	entry.LastRunAt = now
	entry.LastDuration = duration
	entry.TotalRuns++
	if err != nil {
		entry.LastStatus = "failure"
		entry.LastError = err.Error()
		entry.ConsecutiveFailures++
		return
	}
	entry.LastStatus = "success"
	entry.LastError = ""
	entry.LastSuccessAt = now
	entry.ConsecutiveFailures = 0
}

// Snapshot returns a copy of every job summary ordered by name.
func (t *JobTracker) Snapshot() []JobSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]JobSummary, 0, len(t.jobs))
	for _, entry := range t.jobs {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}

// Now exposes the tracker clock to probes.
func (t *JobTracker) Now() time.Time {
	return t.clock.Now()
}
