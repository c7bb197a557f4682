// Package store is the entity store for users, projects and documents.
//
// Each Mutate* call is a per-record read-modify-write: the record is loaded
// (locked where the backend supports it), handed to fn, and written back in
// full only if fn returns nil. There are no cross-record transactions except
// the project cascade in DeleteProject.
package store

import (
	"context"
	"errors"

	"inkwell/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type UserQuery struct {
	// Login matches either username or email.
	Login string
	Email string
}

type ProjectQuery struct {
	// MemberID matches projects owned by or shared with the user.
	MemberID string
	OwnerID  string
	Status   model.ProjectStatus
	// Search is a case-insensitive substring of name or description.
	Search string
}

type DocumentQuery struct {
	OwnerID   string
	ProjectID string
	// Standalone restricts to documents with no project.
	Standalone bool
}

type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUser(ctx context.Context, q UserQuery) (*model.User, error)
	MutateUser(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error)

	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	FindProjects(ctx context.Context, q ProjectQuery) ([]model.Project, error)
	CountProjects(ctx context.Context, ownerID string) (int64, error)
	MutateProject(ctx context.Context, id string, fn func(p *model.Project) error) (*model.Project, error)
	// AdjustProjectWordCount adds delta to CurrentWordCount, flooring at 0.
	AdjustProjectWordCount(ctx context.Context, id string, delta int) error
	// DeleteProject removes the project and every document referencing it,
	// returning the removed documents.
	DeleteProject(ctx context.Context, id string) ([]model.Document, error)

	CreateDocument(ctx context.Context, d *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	FindDocuments(ctx context.Context, q DocumentQuery) ([]model.Document, error)
	CountDocuments(ctx context.Context, ownerID string) (int64, error)
	MutateDocument(ctx context.Context, id string, fn func(d *model.Document) error) (*model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}
