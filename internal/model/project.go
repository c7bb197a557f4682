package model

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type ProjectStatus string

const (
	ProjectDraft      ProjectStatus = "Draft"
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectArchived   ProjectStatus = "Archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectDraft, ProjectInProgress, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Project groups documents. CurrentWordCount is the sum of WordCount over
// documents whose ProjectID points here; OwnerID never appears in
// Collaborators.
type Project struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     string        `gorm:"type:uuid;index;not null" json:"owner"`
	Name        string        `gorm:"not null" json:"name"`
	Description string        `gorm:"not null;default:''" json:"description"`
	Status      ProjectStatus `gorm:"not null;default:'Draft'" json:"status"`

	TargetWordCount  int `gorm:"not null;default:0" json:"targetWordCount"`
	CurrentWordCount int `gorm:"not null;default:0" json:"currentWordCount"`

	StartDate *time.Time `json:"startDate,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`

	DocumentIDs   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"documents"`
	Collaborators pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"collaborators"`
	Tags          pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Project) Clone() Project {
	p.DocumentIDs = slices.Clone(p.DocumentIDs)
	p.Collaborators = slices.Clone(p.Collaborators)
	p.Tags = slices.Clone(p.Tags)
	if p.StartDate != nil {
		t := *p.StartDate
		p.StartDate = &t
	}
	if p.DueDate != nil {
		t := *p.DueDate
		p.DueDate = &t
	}
	return p
}

// CanView reports whether userID owns or collaborates on the project.
func (p Project) CanView(userID string) bool {
	return p.OwnerID == userID || slices.Contains(p.Collaborators, userID)
}
