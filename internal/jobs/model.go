package jobs

import "time"

const TypeReconcileProject = "RECONCILE_PROJECT"

const (
	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

type Job struct {
	ID uint64 `gorm:"primaryKey"`

	Type    string `gorm:"type:text;not null"` // RECONCILE_PROJECT
	Payload []byte `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	// DedupeKey collapses pending jobs for the same target.
	DedupeKey *string `gorm:"type:text"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"` // PENDING/RUNNING/DONE/FAILED

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

type reconcilePayload struct {
	ProjectID string `json:"project_id"`
}
