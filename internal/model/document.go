package model

import (
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type DocumentStatus string

const (
	DocumentDraft   DocumentStatus = "Draft"
	DocumentEditing DocumentStatus = "Editing"
	DocumentReview  DocumentStatus = "Review"
	DocumentFinal   DocumentStatus = "Final"
)

// ParseDocumentStatus accepts the canonical names plus the "In Progress" and
// "Published" labels used by the editor.
func ParseDocumentStatus(s string) (DocumentStatus, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "draft":
		return DocumentDraft, true
	case "editing", "in progress", "inprogress":
		return DocumentEditing, true
	case "review":
		return DocumentReview, true
	case "final", "published":
		return DocumentFinal, true
	}
	return "", false
}

type Document struct {
	ID        string  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   string  `gorm:"type:uuid;index;not null" json:"owner"`
	ProjectID *string `gorm:"type:uuid;index" json:"project"`

	Title     string         `gorm:"not null" json:"title"`
	Content   string         `gorm:"type:text;not null;default:''" json:"content"`
	WordCount int            `gorm:"not null;default:0" json:"wordCount"`
	Status    DocumentStatus `gorm:"not null;default:'Draft'" json:"status"`
	Notes     string         `gorm:"type:text;not null;default:''" json:"notes"`

	Pages         datatypes.JSONSlice[Page]         `gorm:"type:jsonb" json:"pages"`
	WorldBuilding datatypes.JSONType[WorldBuilding] `gorm:"type:jsonb" json:"worldBuilding"`
	History       datatypes.JSONSlice[Snapshot]     `gorm:"type:jsonb" json:"history"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Page struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// WorldBuilding holds free-text reference entries kept beside a manuscript.
type WorldBuilding struct {
	Locations  []string `json:"locations"`
	Characters []string `json:"characters"`
	LoreWiki   []string `json:"loreWiki"`
}

// Snapshot is a prior version of a document body.
type Snapshot struct {
	Content   string    `json:"content"`
	WordCount int       `json:"wordCount"`
	SavedAt   time.Time `json:"savedAt"`
}

func (w WorldBuilding) Clone() WorldBuilding {
	return WorldBuilding{
		Locations:  slices.Clone(w.Locations),
		Characters: slices.Clone(w.Characters),
		LoreWiki:   slices.Clone(w.LoreWiki),
	}
}

func (d Document) Clone() Document {
	if d.ProjectID != nil {
		id := *d.ProjectID
		d.ProjectID = &id
	}
	d.Pages = slices.Clone(d.Pages)
	d.History = slices.Clone(d.History)
	d.WorldBuilding = datatypes.NewJSONType(d.WorldBuilding.Data().Clone())
	return d
}

// InProject reports whether the document is linked to projectID.
func (d Document) InProject(projectID string) bool {
	return d.ProjectID != nil && *d.ProjectID == projectID
}
