// Package engine owns job records and their lifecycle, and drives the
// decision pipeline on a bounded worker pool. The job map is the only shared
// mutable resource; one mutex serializes all metadata reads and writes and is
// never held across pipeline execution.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"planforge/internal/domain"
	"planforge/internal/environment"
	"planforge/internal/events"
	"planforge/internal/observability"
	"planforge/internal/output"
	"planforge/internal/pipeline"
	"planforge/internal/validate"
)

var (
	// ErrNotFound is returned when a job id is unknown.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady is returned when a result is requested before completion.
	ErrNotReady = errors.New("job not completed")
)

// Options configures a new Engine.
type Options struct {
	Workers       int
	QueueCapacity int
	Events        events.Writer
	Logger        *slog.Logger
}

// jobRecord pairs a job with its generation counter. Submit and regenerate
// each start a new generation; an execution may only publish its terminal
// state while its generation is still current, so a stale run can never
// overwrite a freshly reset job.
type jobRecord struct {
	job domain.Job
	gen uint64
}

type Engine struct {
	mu   sync.Mutex
	jobs map[string]*jobRecord

	pool   *pool
	env    environment.Service
	events events.Writer
	log    *slog.Logger

	Now func() time.Time
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		jobs:   make(map[string]*jobRecord),
		pool:   newPool(opts.Workers, opts.QueueCapacity),
		env:    environment.New(),
		events: opts.Events,
		log:    log,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Environment exposes the profile deriver for ad-hoc snapshots.
func (e *Engine) Environment() environment.Service {
	return e.env
}

// Submit stores a new pending job and dispatches asynchronous execution. It
// never blocks on pipeline work.
func (e *Engine) Submit(ctx context.Context, req domain.DesignRequest) (domain.Job, error) {
	now := e.now().UTC()
	job := domain.Job{
		ID:        uuid.New().String(),
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
		Request:   req,
	}
	e.mu.Lock()
	e.jobs[job.ID] = &jobRecord{job: job, gen: 1}
	e.mu.Unlock()

	observability.JobsSubmitted.Inc()
	if err := e.events.Append(ctx, "job.submitted", job.ID, events.EventPayload{"address": req.Location.Address}); err != nil {
		e.log.Warn("append event", "err", err)
	}
	e.dispatch(ctx, job.ID, 1)
	return job, nil
}

// Status returns a snapshot of the job's current state.
func (e *Engine) Status(id string) (domain.Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.jobs[id]
	if !ok {
		return domain.Job{}, ErrNotFound
	}
	return rec.job, nil
}

// Result returns the design result of a completed job.
func (e *Engine) Result(id string) (domain.DesignResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.jobs[id]
	if !ok {
		return domain.DesignResult{}, ErrNotFound
	}
	if rec.job.Status != domain.JobCompleted || rec.job.Result == nil {
		return domain.DesignResult{}, ErrNotReady
	}
	return *rec.job.Result, nil
}

// Report returns the validation report of a completed job.
func (e *Engine) Report(id string) (domain.ValidationReport, error) {
	result, err := e.Result(id)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return result.Validation, nil
}

// Regenerate replaces the job's requirements, resets it to pending, and
// re-dispatches. The generation bump invalidates any still-running execution
// of the previous request before the lock is released.
func (e *Engine) Regenerate(ctx context.Context, id string, reqs domain.Requirements) (domain.Job, error) {
	e.mu.Lock()
	rec, ok := e.jobs[id]
	if !ok {
		e.mu.Unlock()
		return domain.Job{}, ErrNotFound
	}
	rec.job.Request.Requirements = reqs
	rec.job.Result = nil
	rec.job.Error = ""
	rec.job.Status = domain.JobPending
	rec.job.UpdatedAt = e.now().UTC()
	rec.gen++
	gen := rec.gen
	snapshot := rec.job
	e.mu.Unlock()

	observability.JobsSubmitted.Inc()
	if err := e.events.Append(ctx, "job.regenerated", id, events.EventPayload{"generation": gen}); err != nil {
		e.log.Warn("append event", "err", err)
	}
	e.dispatch(ctx, id, gen)
	return snapshot, nil
}

// Close stops accepting work and waits for in-flight executions to finish.
func (e *Engine) Close() {
	e.pool.close()
}

// dispatch hands the job to the worker pool. A rejected dispatch transitions
// the job straight to failed without ever reaching running.
func (e *Engine) dispatch(ctx context.Context, id string, gen uint64) {
	err := e.pool.submit(func() { e.execute(id, gen) })
	if err == nil {
		return
	}
	e.log.Error("dispatch rejected", "job_id", id, "err", err)
	e.finish(ctx, id, gen, nil, fmt.Errorf("failed to enqueue job: %w", err))
}

// execute is the worker-pool body: pending -> running, run the pipeline, then
// publish the terminal state. Every fault is caught here and converted into
// job state; nothing may escape to the pool.
func (e *Engine) execute(id string, gen uint64) {
	ctx := context.Background()

	e.mu.Lock()
	rec, ok := e.jobs[id]
	if !ok || rec.gen != gen {
		// Job vanished or was reset while queued; nothing to run.
		e.mu.Unlock()
		return
	}
	rec.job.Status = domain.JobRunning
	rec.job.UpdatedAt = e.now().UTC()
	req := rec.job.Request
	e.mu.Unlock()

	if err := e.events.Append(ctx, "job.started", id, nil); err != nil {
		e.log.Warn("append event", "err", err)
	}

	start := time.Now()
	result, err := e.runPipeline(ctx, req)
	observability.PipelineDuration.Observe(time.Since(start).Seconds())

	e.finish(ctx, id, gen, result, err)
}

// runPipeline executes derivation, specialist evaluation, validation, and
// assembly. The recover boundary guarantees a worker always resolves its job
// to a terminal state.
func (e *Engine) runPipeline(ctx context.Context, req domain.DesignRequest) (result *domain.DesignResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	profile, err := e.env.Profile(req.Location.Coordinates.Lat, req.Location.Coordinates.Lon)
	if err != nil {
		return nil, err
	}
	decisions, err := pipeline.Execute(ctx, req, profile)
	if err != nil {
		return nil, err
	}
	report := validate.Evaluate(req, profile, decisions)
	assembled := output.Assemble(req, decisions, report)
	return &assembled, nil
}

// finish publishes the terminal state for the given generation. Executions
// whose generation has advanced discard their outcome.
func (e *Engine) finish(ctx context.Context, id string, gen uint64, result *domain.DesignResult, runErr error) {
	e.mu.Lock()
	rec, ok := e.jobs[id]
	if !ok || rec.gen != gen {
		e.mu.Unlock()
		if ok {
			e.log.Info("discarding stale execution result", "job_id", id, "generation", gen)
		}
		return
	}
	rec.job.UpdatedAt = e.now().UTC()
	if runErr != nil {
		rec.job.Status = domain.JobFailed
		rec.job.Result = nil
		rec.job.Error = classify(runErr)
	} else {
		rec.job.Status = domain.JobCompleted
		rec.job.Result = result
		rec.job.Error = ""
	}
	status := rec.job.Status
	errMsg := rec.job.Error
	e.mu.Unlock()

	observability.JobsFinished.WithLabelValues(string(status)).Inc()
	if runErr != nil {
		e.log.Error("job failed", "job_id", id, "err", errMsg)
		if err := e.events.Append(ctx, "job.failed", id, events.EventPayload{"error": errMsg}); err != nil {
			e.log.Warn("append event", "err", err)
		}
		return
	}
	e.log.Info("job completed", "job_id", id, "design_id", result.DesignID)
	if err := e.events.Append(ctx, "job.completed", id, events.EventPayload{"design_id": result.DesignID}); err != nil {
		e.log.Warn("append event", "err", err)
	}
}

// classify keeps environmental failure messages intact and folds everything
// else into a generic pipeline diagnostic.
func classify(err error) string {
	if errors.Is(err, environment.ErrDerivation) {
		return err.Error()
	}
	if errors.Is(err, ErrPoolSaturated) || errors.Is(err, ErrPoolClosed) {
		return err.Error()
	}
	return fmt.Sprintf("unexpected pipeline failure: %v", err)
}
