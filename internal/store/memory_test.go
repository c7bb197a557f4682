package store

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strptr(s string) *string { return &s }

func TestMemoryStore_UserUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "u1", Username: "ada", Email: "ada@x.io"}))
	require.ErrorIs(t, s.CreateUser(ctx, &model.User{ID: "u2", Username: "ADA", Email: "other@x.io"}), ErrConflict)
	require.ErrorIs(t, s.CreateUser(ctx, &model.User{ID: "u3", Username: "bob", Email: "ada@x.io"}), ErrConflict)

	got, err := s.FindUser(ctx, UserQuery{Login: "Ada@X.io"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = s.FindUser(ctx, UserQuery{Login: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = s.FindUser(ctx, UserQuery{Email: "nobody@x.io"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_MutateUser_CopySemantics(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "u1", Username: "a", Email: "a@x"}))

	out, err := s.MutateUser(ctx, "u1", func(u *model.User) error {
		u.WordCountHistory = append(u.WordCountHistory, model.LedgerEntry{Words: 3})
		return nil
	})
	require.NoError(t, err)
	out.WordCountHistory[0].Words = 99

	stored, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored.WordCountHistory, 1)
	assert.Equal(t, 3, stored.WordCountHistory[0].Words)
}

func TestMemoryStore_MutateUser_ErrorLeavesRecord(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "u1", Username: "a", Email: "a@x", TotalWordsWritten: 10}))

	boom := errors.New("boom")
	_, err := s.MutateUser(ctx, "u1", func(u *model.User) error {
		u.TotalWordsWritten = 0
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, _ := s.GetUser(ctx, "u1")
	assert.Equal(t, 10, u.TotalWordsWritten)

	_, err = s.MutateUser(ctx, "missing", func(*model.User) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_AdjustProjectWordCount_Floors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p1", OwnerID: "u1", CurrentWordCount: 5}))

	require.NoError(t, s.AdjustProjectWordCount(ctx, "p1", 7))
	p, _ := s.GetProject(ctx, "p1")
	assert.Equal(t, 12, p.CurrentWordCount)

	require.NoError(t, s.AdjustProjectWordCount(ctx, "p1", -100))
	p, _ = s.GetProject(ctx, "p1")
	assert.Equal(t, 0, p.CurrentWordCount)

	require.ErrorIs(t, s.AdjustProjectWordCount(ctx, "gone", 1), ErrNotFound)
}

func TestMemoryStore_MutateProject_OwnerImmutable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p1", OwnerID: "u1"}))

	p, err := s.MutateProject(ctx, "p1", func(p *model.Project) error {
		p.OwnerID = "intruder"
		p.Name = "renamed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.OwnerID)
	assert.Equal(t, "renamed", p.Name)
}

func TestMemoryStore_DeleteProject_Cascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p1", OwnerID: "u1"}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d1", OwnerID: "u1", ProjectID: strptr("p1"), WordCount: 4}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d2", OwnerID: "u1", ProjectID: strptr("p1"), WordCount: 6}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d3", OwnerID: "u1"}))

	removed, err := s.DeleteProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "d1", removed[0].ID)
	assert.Equal(t, "d2", removed[1].ID)

	_, err = s.GetProject(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDocument(ctx, "d1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDocument(ctx, "d3")
	require.NoError(t, err)

	_, err = s.DeleteProject(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FindDocumentsAndProjects(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p1", OwnerID: "u1", Name: "Saga", Status: model.ProjectDraft}))
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p2", OwnerID: "u2", Name: "Essays", Collaborators: []string{"u1"}, Status: model.ProjectArchived}))
	require.NoError(t, s.CreateProject(ctx, &model.Project{ID: "p3", OwnerID: "u2", Name: "Private"}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d1", OwnerID: "u1", ProjectID: strptr("p1")}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d2", OwnerID: "u1"}))

	ps, err := s.FindProjects(ctx, ProjectQuery{MemberID: "u1"})
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	ps, _ = s.FindProjects(ctx, ProjectQuery{MemberID: "u1", Status: model.ProjectArchived})
	require.Len(t, ps, 1)
	assert.Equal(t, "p2", ps[0].ID)

	ps, _ = s.FindProjects(ctx, ProjectQuery{MemberID: "u1", Search: "SAG"})
	require.Len(t, ps, 1)
	assert.Equal(t, "p1", ps[0].ID)

	n, _ := s.CountProjects(ctx, "u2")
	assert.Equal(t, int64(2), n)

	ds, _ := s.FindDocuments(ctx, DocumentQuery{ProjectID: "p1"})
	require.Len(t, ds, 1)
	ds, _ = s.FindDocuments(ctx, DocumentQuery{OwnerID: "u1", Standalone: true})
	require.Len(t, ds, 1)
	assert.Equal(t, "d2", ds[0].ID)

	n, _ = s.CountDocuments(ctx, "u1")
	assert.Equal(t, int64(2), n)
}

func TestMemoryStore_MutateDocument(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateDocument(ctx, &model.Document{ID: "d1", OwnerID: "u1"}))

	d, err := s.MutateDocument(ctx, "d1", func(d *model.Document) error {
		d.Pages = datatypes.JSONSlice[model.Page]{{ID: "pg", Content: "hi"}}
		d.OwnerID = "other"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", d.OwnerID)

	require.NoError(t, s.DeleteDocument(ctx, "d1"))
	require.ErrorIs(t, s.DeleteDocument(ctx, "d1"), ErrNotFound)
}
