// Package batch runs planned mockup jobs sequentially, persisting each
// success and reporting progress as it goes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mockupstudio/internal/catalog"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/planner"
	"mockupstudio/internal/ratelimit"
	"mockupstudio/internal/retry"
	"mockupstudio/internal/session"
)

// Messages recorded as LastError for terminal failures.
const (
	MsgNoResults  = "no mockup could be generated"
	MsgUnexpected = "unexpected error while generating mockups"
	MsgCancelled  = "batch cancelled"
	// MsgMissingCredential replaces the raw error when no API key is set.
	MsgMissingCredential = "cannot generate: gemini api key is not configured"
)

var errJobPanic = errors.New("batch: job panicked")

// Generator produces one mockup image. A nil image without error is a soft
// failure.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Image, error)
}

// Input is everything a run needs besides the session.
type Input struct {
	BatchID          string
	OwnerID          string
	Design           domain.Image
	OriginalFileName string
	Selection        domain.BatchSelection
}

// Outcome is the terminal snapshot of a run.
type Outcome = Snapshot

// Options configures an Orchestrator.
type Options struct {
	Generator Generator
	History   domain.HistoryStore
	Pacer     ratelimit.Pacer
	Limit     planner.Limit
	Logger    infra.Logger
	Listener  Listener
	Now       func() time.Time
}

// Orchestrator drives the state machine of one owner's batches. Only one run
// may be in progress at a time.
type Orchestrator struct {
	generator Generator
	history   domain.HistoryStore
	pacer     ratelimit.Pacer
	limit     planner.Limit
	logger    infra.Logger
	now       func() time.Time
	tracker   *Tracker

	mu      sync.Mutex
	running bool
}

// New builds an Orchestrator. Generator is required; a nil History skips
// persistence and a nil Pacer disables pacing.
func New(opts Options) *Orchestrator {
	pacer := opts.Pacer
	if pacer == nil {
		pacer = ratelimit.Unlimited()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		generator: opts.Generator,
		history:   opts.History,
		pacer:     pacer,
		limit:     opts.Limit,
		logger:    opts.Logger,
		now:       now,
		tracker:   NewTracker(opts.Listener),
	}
}

// Tracker exposes the progress projection of the current or last run.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Run executes a batch and blocks until it reaches a terminal state.
func (o *Orchestrator) Run(ctx context.Context, sess *session.Session, in Input) (Outcome, error) {
	_, done, err := o.Start(ctx, sess, in)
	if err != nil {
		return Outcome{}, err
	}
	return <-done, nil
}

// Start validates the input, enters Running and executes the jobs in a new
// goroutine. The returned channel yields the outcome once.
func (o *Orchestrator) Start(ctx context.Context, sess *session.Session, in Input) (planner.Plan, <-chan Outcome, error) {
	return o.start(ctx, sess, in, nil)
}

// start is Start with a hook that sees the outcome while the orchestrator
// still counts as running, so no other run can replace the tracker first.
func (o *Orchestrator) start(ctx context.Context, sess *session.Session, in Input, onFinish func(Outcome)) (planner.Plan, <-chan Outcome, error) {
	if in.Design.Empty() {
		return planner.Plan{}, nil, domain.NewValidationError(domain.CodeMissingDesign, "upload a design before generating")
	}
	if len(in.Selection.Products) == 0 {
		return planner.Plan{}, nil, domain.NewValidationError(domain.CodeNoProducts, "select at least one product")
	}
	if sess != nil && !sess.Active() {
		return planner.Plan{}, nil, domain.ErrSessionClosed
	}
	plan, err := planner.Build(in.Selection, o.limit)
	if err != nil {
		return planner.Plan{}, nil, err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return planner.Plan{}, nil, domain.ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	stopOnSignOut := func() bool { return true }
	if sess != nil {
		stopOnSignOut = context.AfterFunc(sess.Context(), cancel)
	}

	o.tracker.start(in.BatchID, in.OwnerID, len(plan.Jobs), plan.Warning, o.now())
	log := o.logger.With().Str("batch_id", in.BatchID).Str("owner_id", in.OwnerID).Logger()
	if plan.Warning != "" {
		log.Warn().Int("jobs", len(plan.Jobs)).Msg("batch: " + plan.Warning)
	}
	log.Info().Int("jobs", len(plan.Jobs)).Int("products", len(in.Selection.Products)).Msg("batch: started")

	done := make(chan Outcome, 1)
	go func() {
		defer cancel()
		defer stopOnSignOut()
		state, msg := o.execute(runCtx, sess, in, plan, log)
		o.tracker.finish(state, msg, o.now())
		out := o.tracker.Snapshot()
		if onFinish != nil {
			onFinish(out)
		}

		o.mu.Lock()
		o.running = false
		o.mu.Unlock()

		log.Info().
			Str("state", out.State.String()).
			Int("results", len(out.Results)).
			Int("completed", out.Completed).
			Int("total", out.Total).
			Msg("batch: finished")
		done <- out
	}()
	return plan, done, nil
}

func (o *Orchestrator) execute(ctx context.Context, sess *session.Session, in Input, plan planner.Plan, log infra.Logger) (State, string) {
	results := 0
	for i, job := range plan.Jobs {
		if ctx.Err() != nil || (sess != nil && !sess.Active()) {
			return StateCancelled, MsgCancelled
		}
		if i > 0 {
			if err := o.pacer.Wait(ctx); err != nil {
				return StateCancelled, MsgCancelled
			}
		}

		jobLog := log.With().Int("job", i+1).Str("label", job.Label()).Logger()
		ok, err := o.runJob(ctx, sess, in, job, jobLog)
		o.pacer.Done()
		switch {
		case errors.Is(err, errJobPanic):
			return StateFailed, MsgUnexpected
		case err != nil && ctx.Err() != nil:
			return StateCancelled, MsgCancelled
		case errors.Is(err, domain.ErrMissingCredential):
			jobLog.Error().Err(err).Msg("batch: no api key, aborting")
			return StateFailed, MsgMissingCredential
		case err != nil && isFatal(err):
			jobLog.Error().Err(err).Msg("batch: fatal error, aborting")
			return StateFailed, err.Error()
		case err != nil:
			jobLog.Warn().Err(err).Msg("batch: job failed, continuing")
		case !ok:
			jobLog.Warn().Msg("batch: job produced no image, continuing")
		default:
			results++
		}
		o.tracker.jobDone(i + 1)
	}
	if results == 0 {
		return StateFailed, MsgNoResults
	}
	return StateCompleted, ""
}

// runJob generates one mockup and persists it. Panics are converted into
// errJobPanic.
func (o *Orchestrator) runJob(ctx context.Context, sess *session.Session, in Input, job domain.GenerationJob, log infra.Logger) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("batch: recovered panic in job")
			ok, err = false, errJobPanic
		}
	}()

	img, err := o.generator.Generate(ctx, ResolveRequest(job, in))
	if err != nil {
		return false, err
	}
	if img.Empty() {
		return false, nil
	}

	result := domain.GenerationResult{Category: job.Label(), Image: img, RenderMode: job.RenderMode}
	o.tracker.appendResult(result)
	o.persist(ctx, sess, in, result, log)
	return true, nil
}

func (o *Orchestrator) persist(ctx context.Context, sess *session.Session, in Input, result domain.GenerationResult, log infra.Logger) {
	if o.history == nil || in.OwnerID == "" {
		return
	}
	if sess != nil && !sess.Active() {
		log.Debug().Msg("batch: session ended, skipping history append")
		return
	}
	rec, err := o.history.Append(ctx, domain.NewHistoryRecord{
		OwnerID:          in.OwnerID,
		Image:            *result.Image,
		CategoryLabel:    result.Category,
		OriginalFileName: in.OriginalFileName,
	})
	if err != nil {
		log.Error().Err(err).Msg("batch: history append failed")
		return
	}
	log.Debug().Str("record_id", rec.ID).Msg("batch: history record saved")
}

// ResolveRequest builds the generation request for one job. Multi-product
// batches use generic placement and size values.
func ResolveRequest(job domain.GenerationJob, in Input) domain.GenerationRequest {
	params := in.Selection.Params
	placement, size := params.Placement, params.Size
	if in.Selection.MultiProduct() {
		placement, size = catalog.GenericPlacement, catalog.GenericSize
	} else {
		placement = catalog.ResolvePlacement(job.Category, placement)
		size = catalog.ResolveSize(job.Category, size)
	}

	var note string
	if job.Variations > 1 {
		note = fmt.Sprintf("Variação visual única %d.", job.Variation)
	}

	return domain.GenerationRequest{
		Design:         in.Design,
		Category:       job.Category,
		Style:          params.Style,
		Placement:      placement,
		Color:          params.Color,
		Size:           size,
		Scene:          params.Scene,
		VariationNote:  note,
		RenderMode:     job.RenderMode,
		BackgroundType: params.BackgroundType,
		Material:       strings.ToLower(params.Material),
	}
}

func isFatal(err error) bool {
	return errors.Is(err, domain.ErrMissingCredential) || retry.Classify(err) == retry.KindFatal
}
