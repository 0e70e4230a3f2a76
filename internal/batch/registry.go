package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/planner"
	"mockupstudio/internal/session"
)

// Run is one batch known to the registry.
type Run struct {
	ID               string
	OwnerID          string
	OriginalFileName string
	Plan             planner.Plan

	orch   *Orchestrator
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	final *Snapshot
}

// Snapshot returns live progress while running and the frozen outcome after.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	final := r.final
	r.mu.Unlock()
	if final != nil {
		out := *final
		out.Results = append([]domain.GenerationResult(nil), final.Results...)
		return out
	}
	snap := r.orch.Tracker().Snapshot()
	if snap.BatchID != r.ID {
		// the orchestrator has not published this run yet
		return Snapshot{BatchID: r.ID, OwnerID: r.OwnerID, State: StateRunning, Total: len(r.Plan.Jobs), Warning: r.Plan.Warning}
	}
	return snap
}

// Cancel stops the run before its next job.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

func (r *Run) complete(out Outcome) {
	r.mu.Lock()
	r.final = &out
	r.mu.Unlock()
	close(r.done)
}

// Factory builds the orchestrator for a new owner.
type Factory func(ownerID string) *Orchestrator

// Registry indexes runs by id for polling and keeps one orchestrator per
// owner with a run in progress, so an owner can run only one batch at a
// time. Finished runs expire after the TTL.
type Registry struct {
	runs    *cache.Cache
	factory Factory
	logger  infra.Logger

	mu     sync.Mutex
	owners map[string]*Orchestrator
	active map[string]*Run
}

// NewRegistry creates a registry whose finished runs live for ttl.
func NewRegistry(factory Factory, ttl time.Duration, logger infra.Logger) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		runs:    cache.New(ttl, 2*ttl),
		factory: factory,
		logger:  logger,
		owners:  make(map[string]*Orchestrator),
		active:  make(map[string]*Run),
	}
}

// Start launches a batch for the session's owner. The run is bound to the
// session context, not to the caller's request.
func (g *Registry) Start(sess *session.Session, in Input) (*Run, error) {
	if !sess.Active() {
		return nil, domain.ErrSessionClosed
	}
	in.OwnerID = sess.OwnerID
	if in.BatchID == "" {
		in.BatchID = uuid.NewString()
	}

	// g.mu serializes starts, so an orchestrator is only created or dropped
	// while no other start can pick it up
	g.mu.Lock()
	orch, existed := g.owners[sess.OwnerID]
	if !existed {
		orch = g.factory(sess.OwnerID)
	}
	ctx, cancel := context.WithCancel(sess.Context())
	registered := make(chan struct{})
	var run *Run
	plan, _, err := orch.start(ctx, sess, in, func(out Outcome) {
		<-registered
		cancel()
		g.release(run, out)
	})
	if err != nil {
		g.mu.Unlock()
		cancel()
		return nil, err
	}

	run = &Run{
		ID:               in.BatchID,
		OwnerID:          sess.OwnerID,
		OriginalFileName: in.OriginalFileName,
		Plan:             plan,
		orch:             orch,
		cancel:           cancel,
		done:             make(chan struct{}),
	}
	g.owners[sess.OwnerID] = orch
	g.active[sess.OwnerID] = run
	g.runs.Set(run.ID, run, cache.NoExpiration)
	g.mu.Unlock()
	close(registered)
	return run, nil
}

// release freezes a finished run and forgets the owner's orchestrator. It
// runs before the orchestrator accepts another batch.
func (g *Registry) release(run *Run, out Outcome) {
	g.mu.Lock()
	if g.active[run.OwnerID] == run {
		delete(g.active, run.OwnerID)
	}
	if g.owners[run.OwnerID] == run.orch {
		delete(g.owners, run.OwnerID)
	}
	g.mu.Unlock()
	g.runs.Set(run.ID, run, cache.DefaultExpiration)
	run.complete(out)
	g.logger.Debug().Str("batch_id", run.ID).Str("state", out.State.String()).Msg("batch: run released")
}

// Get returns the run with id when it belongs to ownerID.
func (g *Registry) Get(id, ownerID string) (*Run, error) {
	v, ok := g.runs.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	run := v.(*Run)
	if run.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

// Active returns the owner's in-progress run, if any.
func (g *Registry) Active(ownerID string) (*Run, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	run, ok := g.active[ownerID]
	return run, ok
}

// CancelOwner cancels every in-progress run of ownerID.
func (g *Registry) CancelOwner(ownerID string) {
	if run, ok := g.Active(ownerID); ok {
		run.Cancel()
	}
}
