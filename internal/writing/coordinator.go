// Package writing keeps documents, projects and their owners consistent.
//
// Every mutating operation follows the same shape: validate, perform one
// primary write, then run secondary effects (project aggregate, the acting
// user's daily ledger, achievements). Secondary effects are best-effort: a
// failure is logged as a SecondaryEffectError and never rolls back or fails
// the primary write. Concurrent edits of one record are last-write-wins, so
// project aggregates may drift; ReconcileProject recomputes them.
package writing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"inkwell/internal/achievement"
	"inkwell/internal/logging"
	"inkwell/internal/model"
	"inkwell/internal/progress"
	"inkwell/internal/store"
)

// Enqueuer schedules a deferred ReconcileProject.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, projectID string) error
}

type Coordinator struct {
	Store store.Store
	Clock progress.Clock
	Log   logging.Logger
	// Reconcile is optional; without it drift waits for a manual recount.
	Reconcile Enqueuer
}

func New(s store.Store, clock progress.Clock, log logging.Logger, q Enqueuer) *Coordinator {
	return &Coordinator{Store: s, Clock: clock, Log: log, Reconcile: q}
}

// errNoChange aborts a Mutate* call without writing.
var errNoChange = errors.New("no change")

func lookupErr(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s: %w", ErrNotFound, kind, id, err)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

func primaryErr(kind, id string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrPrimaryWrite, kind, id, err)
}

// mutateErr sorts errors coming out of a Mutate* call: domain errors raised
// inside fn pass through, a vanished record is not-found, anything else is
// a failed primary write.
func mutateErr(kind, id string, err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, store.ErrNotFound):
		return lookupErr(kind, id, err)
	default:
		return primaryErr(kind, id, err)
	}
}

func (c *Coordinator) report(ctx context.Context, e *SecondaryEffectError) {
	args := []any{"step", e.Step, "entity", e.Entity, "id", e.ID, "delta", e.Delta, "err", e.Err}
	if errors.Is(e.Err, store.ErrNotFound) {
		c.Log.Warn(ctx, "secondary effect skipped: target gone", args...)
		return
	}
	c.Log.Error(ctx, "secondary effect failed", args...)
}

// projectChange is the project-side effect of one document mutation.
type projectChange struct {
	ProjectID string
	DocID     string
	Delta     int
	Link      bool // add DocID to the project's document set
	Unlink    bool // remove it
}

// applyProject pushes a document's word delta (and set membership change) to
// its project. A project deleted in the meantime is a no-op; any other
// failure queues a reconcile.
func (c *Coordinator) applyProject(ctx context.Context, ch projectChange) {
	if ch.ProjectID == "" {
		return
	}
	var err error
	switch {
	case ch.Link || ch.Unlink:
		_, err = c.Store.MutateProject(ctx, ch.ProjectID, func(p *model.Project) error {
			if ch.Link && !slices.Contains(p.DocumentIDs, ch.DocID) {
				p.DocumentIDs = append(p.DocumentIDs, ch.DocID)
			}
			if ch.Unlink {
				p.DocumentIDs = slices.DeleteFunc(p.DocumentIDs, func(id string) bool { return id == ch.DocID })
			}
			p.CurrentWordCount = max(0, p.CurrentWordCount+ch.Delta)
			return nil
		})
	case ch.Delta != 0:
		err = c.Store.AdjustProjectWordCount(ctx, ch.ProjectID, ch.Delta)
	default:
		return
	}
	if err == nil {
		return
	}

	c.report(ctx, &SecondaryEffectError{Step: "project", Entity: "project", ID: ch.ProjectID, Delta: ch.Delta, Err: err})
	if errors.Is(err, store.ErrNotFound) || c.Reconcile == nil {
		return
	}
	if qerr := c.Reconcile.EnqueueReconcile(ctx, ch.ProjectID); qerr != nil {
		c.report(ctx, &SecondaryEffectError{Step: "enqueue", Entity: "project", ID: ch.ProjectID, Err: qerr})
	}
}

// applyLedger moves the user's daily entry and lifetime total by delta.
func (c *Coordinator) applyLedger(ctx context.Context, userID string, delta int) {
	if delta == 0 {
		return
	}
	_, err := c.Store.MutateUser(ctx, userID, func(u *model.User) error {
		progress.ApplyWordDelta(u, delta, c.Clock)
		return nil
	})
	if err != nil {
		c.report(ctx, &SecondaryEffectError{Step: "ledger", Entity: "user", ID: userID, Delta: delta, Err: err})
	}
}

// settle runs the project and ledger effects concurrently (they touch
// disjoint records) and evaluates achievements once both have finished.
func (c *Coordinator) settle(ctx context.Context, ch projectChange, userID string, delta int) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.applyProject(ctx, ch)
	}()
	go func() {
		defer wg.Done()
		c.applyLedger(ctx, userID, delta)
	}()
	wg.Wait()

	c.evaluate(ctx, userID)
}

// evaluate unlocks any achievements the user now qualifies for.
func (c *Coordinator) evaluate(ctx context.Context, userID string) []model.Achievement {
	var stats achievement.Stats
	var err error
	if stats.ProjectCount, err = c.Store.CountProjects(ctx, userID); err != nil {
		c.report(ctx, &SecondaryEffectError{Step: "achievements", Entity: "user", ID: userID, Err: err})
		return nil
	}
	if stats.DocumentCount, err = c.Store.CountDocuments(ctx, userID); err != nil {
		c.report(ctx, &SecondaryEffectError{Step: "achievements", Entity: "user", ID: userID, Err: err})
		return nil
	}

	var unlocked []model.Achievement
	_, err = c.Store.MutateUser(ctx, userID, func(u *model.User) error {
		if e, ok := progress.TodayEntry(u, c.Clock); ok {
			stats.TodayGoalAchieved = e.GoalAchieved
		}
		unlocked = achievement.Evaluate(u, stats, c.Clock.Now())
		if len(unlocked) == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		c.report(ctx, &SecondaryEffectError{Step: "achievements", Entity: "user", ID: userID, Err: err})
		return nil
	}
	for _, a := range unlocked {
		c.Log.Info(ctx, "achievement unlocked", "user_id", userID, "achievement", a.ID)
	}
	return unlocked
}
