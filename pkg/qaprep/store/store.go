package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the run catalog: one record per pipeline invocation.
// Output files are never tracked for mutation; every invocation is a new run.
type Store interface {
	Close() error

	// RecordRun stores a new run in the running state. Empty ID and zero
	// StartedAt are filled in; the stored run is returned.
	RecordRun(ctx context.Context, r Run) (Run, error)
	// FinishRun marks a run succeeded, or failed when res.Err is set.
	FinishRun(ctx context.Context, id string, res Result) error
	// AddStage appends a timed stage to a run.
	AddStage(ctx context.Context, runID string, s Stage) error

	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Status of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one pipeline invocation
type Run struct {
	ID         string
	Command    string
	Input      string
	Output     string
	Rows       int
	Columns    []string
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []Stage
}

// Stage is one timed step of a run
type Stage struct {
	Name    string
	Elapsed time.Duration
	Error   string
}

// Result is what a finished run produced
type Result struct {
	Rows    int
	Columns []string
	Err     error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new lexically sortable run ID.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Prepare fills the defaults RecordRun applies.
func Prepare(r Run) Run {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	r.Status = StatusRunning
	r.Stages = nil
	return r
}

// Finish applies res to r.
func Finish(r Run, res Result, at time.Time) Run {
	r.Rows = res.Rows
	r.Columns = append([]string(nil), res.Columns...)
	r.FinishedAt = at
	r.Status = StatusSucceeded
	r.Error = ""
	if res.Err != nil {
		r.Status = StatusFailed
		r.Error = res.Err.Error()
	}
	return r
}
