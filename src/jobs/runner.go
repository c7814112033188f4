// Package jobs is the single entry point every trigger goes through to start a reconciliation
// run.
package jobs

import (
	"context"
	"errors"
	"log"
	"sitbook/src/models"
	"sitbook/src/reconciler"
	"sitbook/src/types"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	SourceSchedule = "schedule"
	SourceManual   = "manual"
	SourceWake     = "wake"
	SourceChange   = "change"
)

type Reconciler interface {
	Reconcile(ctx context.Context) (reconciler.Result, error)
	Policy() types.ExpirationPolicy
}

type Runner struct {
	rec      Reconciler
	recorder StatusRecorder
	timeout  time.Duration

	group    singleflight.Group
	inflight sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner wraps rec. A nil recorder disables status recording; a non-positive timeout
// leaves runs bounded only by the caller's context.
func NewRunner(rec Reconciler, recorder StatusRecorder, timeout time.Duration) *Runner {
	if recorder == nil {
		recorder = NopStatusRecorder{}
	}
	return &Runner{rec: rec, recorder: recorder, timeout: timeout}
}

// Run reconciles once. Callers arriving while a run is in progress share its result instead
// of starting another.
func (r *Runner) Run(ctx context.Context, source string) (reconciler.Result, error) {
	v, err, shared := r.group.Do("reconcile", func() (any, error) {
		return r.run(context.WithoutCancel(ctx), source)
	})
	if shared {
		log.Printf("[jobs] %s trigger joined an in-progress run\n", source)
	}
	result, _ := v.(reconciler.Result)
	return result, err
}

func (r *Runner) run(ctx context.Context, source string) (reconciler.Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	result, err := r.rec.Reconcile(ctx)

	status := models.RunStatus{
		RunID:          result.RunID,
		Source:         source,
		Outcome:        types.RUN_SUCCEEDED,
		Policy:         string(r.rec.Policy()),
		StartedAt:      result.StartedAt,
		FinishedAt:     time.Now().UTC(),
		ProcessedCount: result.ProcessedCount,
		Deferred:       result.Deferred,
		Anomalies:      result.Anomalies,
	}
	if err != nil {
		status.Outcome = types.RUN_FAILED
		status.LastError = err.Error()
		log.Printf("[jobs] %s run %s failed: %s\n", source, result.RunID, err.Error())
	}
	if rerr := r.recorder.Record(context.WithoutCancel(ctx), status); rerr != nil {
		log.Printf("[jobs] could not record run status: %s\n", rerr.Error())
	}
	return result, err
}

// Kick starts a run in the background. Wake hints and change events use it; the result is
// only logged. Kicks arriving after Wait has been called are dropped.
func (r *Runner) Kick(source string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		log.Printf("[jobs] runner is shutting down. Dropping %s trigger\n", source)
		return
	}
	r.inflight.Add(1)
	r.mu.Unlock()
	go func() {
		defer r.inflight.Done()
		result, err := r.Run(context.Background(), source)
		if err != nil {
			if errors.Is(err, types.ErrConflict) {
				log.Printf("[jobs] %s run lost a race with another run. The next run will retry\n", source)
			}
			return
		}
		log.Printf("[jobs] %s run %s processed %d\n", source, result.RunID, result.ProcessedCount)
	}()
}

// Wait stops accepting kicks and blocks until every kicked run has returned.
func (r *Runner) Wait() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.inflight.Wait()
}

// LastStatus returns the most recently recorded run, or nil.
func (r *Runner) LastStatus(ctx context.Context) (*models.RunStatus, error) {
	return r.recorder.Last(ctx)
}
