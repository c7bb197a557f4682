package jobs

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	DB *gorm.DB
}

// EnqueueReconcile schedules a project recount. A pending job for the same
// project absorbs the request.
func (r *Repo) EnqueueReconcile(ctx context.Context, projectID string) error {
	payload, err := json.Marshal(reconcilePayload{ProjectID: projectID})
	if err != nil {
		return err
	}
	key := TypeReconcileProject + ":" + projectID
	j := Job{
		Type:      TypeReconcileProject,
		Payload:   payload,
		DedupeKey: &key,
		RunAt:     time.Now(),
		Status:    StatusPending,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&j).Error
}

// Pending twins: uq_jobs_pending_key allows one PENDING row per
// (type, dedupe_key). Every transition back to PENDING checks for a twin
// first and closes the job as DONE when one exists, since the twin's run
// covers it. A reconcile recounts from scratch so nothing is lost.

const supersededMsg = "superseded by pending twin"

// RequeueStale puts jobs whose worker died mid-run back to PENDING. Of
// several stale jobs sharing a dedupe key only the oldest is requeued; the
// rest, and any with a pending twin, are closed.
func (r *Repo) RequeueStale(ctx context.Context) (int64, error) {
	var requeued int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
update jobs
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where id in (
  select distinct on (s.type, coalesce(s.dedupe_key, s.id::text)) s.id
  from jobs s
  where s.status='RUNNING' and s.locked_at is not null and s.locked_at < now() - interval '5 minutes'
    and (s.dedupe_key is null or not exists (
      select 1 from jobs p
      where p.status='PENDING' and p.type=s.type and p.dedupe_key=s.dedupe_key))
  order by s.type, coalesce(s.dedupe_key, s.id::text), s.id
)
`)
		if res.Error != nil {
			return res.Error
		}
		requeued = res.RowsAffected

		return tx.Exec(`
update jobs
set status='DONE', locked_by=null, locked_at=null, last_error=?, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
  and dedupe_key is not null
  and exists (
    select 1 from jobs p
    where p.status='PENDING' and p.type=jobs.type and p.dedupe_key=jobs.dedupe_key)
`, supersededMsg).Error
	})
	if err != nil {
		return 0, err
	}
	return requeued, nil
}

// Claim one due job atomically using SKIP LOCKED.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Exec(`update jobs set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).Exec(`update jobs set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}

// RetryLater reschedules a running job, or closes it when a pending twin
// already exists.
func (r *Repo) RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
update jobs
set status='PENDING',
    attempts=?,
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?
  and (dedupe_key is null or not exists (
    select 1 from jobs p
    where p.status='PENDING' and p.type=jobs.type and p.dedupe_key=jobs.dedupe_key and p.id<>jobs.id))`,
			attempts, runAt, errMsg, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Exec(`
update jobs
set status='DONE', attempts=?, locked_by=null, locked_at=null, last_error=?, updated_at=now()
where id=? and status='RUNNING'`, attempts, supersededMsg, id).Error
	})
}
