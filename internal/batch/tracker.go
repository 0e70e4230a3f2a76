package batch

import (
	"sync"
	"time"

	"mockupstudio/internal/domain"
)

// State is the lifecycle position of a batch.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Snapshot is a point-in-time copy of a batch's progress and results.
type Snapshot struct {
	BatchID    string
	OwnerID    string
	State      State
	Percent    int
	Completed  int
	Total      int
	Results    []domain.GenerationResult
	LastError  string
	Warning    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Running reports whether the batch is in progress.
func (s Snapshot) Running() bool {
	return s.State == StateRunning
}

// Progress returns the derived progress triple.
func (s Snapshot) Progress() domain.BatchProgress {
	return domain.BatchProgress{Completed: s.Completed, Total: s.Total, Percent: s.Percent}
}

// Listener observes every tracker update.
type Listener func(Snapshot)

// Tracker is the observable projection of one orchestrator's current run.
type Tracker struct {
	mu       sync.Mutex
	snap     Snapshot
	listener Listener
}

// NewTracker returns an idle tracker. listener may be nil.
func NewTracker(listener Listener) *Tracker {
	return &Tracker{listener: listener}
}

// Snapshot returns a copy safe for concurrent readers.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

func (t *Tracker) copyLocked() Snapshot {
	out := t.snap
	out.Results = append([]domain.GenerationResult(nil), t.snap.Results...)
	return out
}

func (t *Tracker) update(fn func(*Snapshot)) {
	t.mu.Lock()
	fn(&t.snap)
	snap := t.copyLocked()
	t.mu.Unlock()
	if t.listener != nil {
		t.listener(snap)
	}
}

func (t *Tracker) start(batchID, ownerID string, total int, warning string, at time.Time) {
	t.update(func(s *Snapshot) {
		*s = Snapshot{
			BatchID:   batchID,
			OwnerID:   ownerID,
			State:     StateRunning,
			Total:     total,
			Warning:   warning,
			StartedAt: at,
		}
	})
}

func (t *Tracker) appendResult(r domain.GenerationResult) {
	t.update(func(s *Snapshot) {
		s.Results = append(s.Results, r)
	})
}

func (t *Tracker) jobDone(completed int) {
	t.update(func(s *Snapshot) {
		s.Completed = completed
		s.Percent = percent(completed, s.Total)
	})
}

func (t *Tracker) finish(state State, lastError string, at time.Time) {
	t.update(func(s *Snapshot) {
		s.State = state
		s.LastError = lastError
		s.FinishedAt = at
	})
}

// percent is round(completed/total*100) in integer arithmetic.
func percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (completed*200 + total) / (total * 2)
}
