package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"inkwell/internal/logging"
	"inkwell/internal/store"
)

type Queue interface {
	RequeueStale(ctx context.Context) (int64, error)
	Claim(ctx context.Context, workerID string) (*Job, error)
	MarkDone(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
	RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error
}

// Reconciler recomputes a project's derived aggregates from its documents.
type Reconciler interface {
	ReconcileProject(ctx context.Context, projectID string) error
}

type Worker struct {
	ID         string
	Queue      Queue
	Reconciler Reconciler
	Log        logging.Logger
	Interval   time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick claims and handles at most one job. It reports whether a job ran.
func (w *Worker) Tick(ctx context.Context) bool {
	if n, err := w.Queue.RequeueStale(ctx); err != nil {
		// claiming still proceeds; the next tick retries the requeue
		w.Log.Error(ctx, "worker requeue error", "worker", w.ID, "err", err)
	} else if n > 0 {
		w.Log.Info(ctx, "stale jobs requeued", "worker", w.ID, "count", n)
	}

	job, err := w.Queue.Claim(ctx, w.ID)
	if err != nil {
		w.Log.Error(ctx, "worker claim error", "worker", w.ID, "err", err)
		return false
	}
	if job == nil {
		return false
	}
	w.handle(ctx, job)
	return true
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeReconcileProject:
		w.handleReconcile(ctx, job)
	default:
		w.check(ctx, "mark failed", job, w.Queue.MarkFailed(ctx, job.ID, "unknown job type"))
	}
}

func (w *Worker) handleReconcile(ctx context.Context, job *Job) {
	var p reconcilePayload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.ProjectID == "" {
		w.check(ctx, "mark failed", job, w.Queue.MarkFailed(ctx, job.ID, "bad payload"))
		return
	}

	if err := w.Reconciler.ReconcileProject(ctx, p.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// project deleted since the job was queued
			w.check(ctx, "mark done", job, w.Queue.MarkDone(ctx, job.ID))
			return
		}
		w.Log.Warn(ctx, "reconcile failed", "job_id", job.ID, "project_id", p.ProjectID, "attempt", job.Attempts+1, "err", err)
		w.retry(ctx, job, err.Error())
		return
	}

	w.Log.Info(ctx, "project reconciled", "job_id", job.ID, "project_id", p.ProjectID)
	w.check(ctx, "mark done", job, w.Queue.MarkDone(ctx, job.ID))
}

func (w *Worker) retry(ctx context.Context, job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		w.check(ctx, "mark failed", job, w.Queue.MarkFailed(ctx, job.ID, errMsg))
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	next := now().Add(time.Duration(sec) * time.Second)

	w.check(ctx, "retry later", job, w.Queue.RetryLater(ctx, job.ID, attempts, next, errMsg))
}

// check logs a failed queue transition. The job stays RUNNING and is picked
// up again by RequeueStale once its lock goes stale.
func (w *Worker) check(ctx context.Context, op string, job *Job, err error) {
	if err != nil {
		w.Log.Error(ctx, "worker queue update failed", "worker", w.ID, "op", op, "job_id", job.ID, "err", err)
	}
}
