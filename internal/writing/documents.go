package writing

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/model"
	"inkwell/internal/store"
	"inkwell/internal/wordcount"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateDocumentInput struct {
	OwnerID   string
	ProjectID *string
	Title     string
	// Pages wins over Content when both are set.
	Content string
	Pages   []model.Page
	Status  string
}

type DocumentPatch struct {
	Title         *string
	Content       *string
	Status        *string
	Notes         *string
	Pages         *[]model.Page
	WorldBuilding *model.WorldBuilding
}

// CreateDocument stores a new document, standalone or under a project the
// owner can see, and credits its words to the project and the owner's day.
func (c *Coordinator) CreateDocument(ctx context.Context, in CreateDocumentInput) (*model.Document, error) {
	if err := checkID("user", in.OwnerID); err != nil {
		return nil, err
	}
	title, err := checkText("title", in.Title, 1, maxTitleLen)
	if err != nil {
		return nil, err
	}
	status := model.DocumentDraft
	if in.Status != "" {
		s, ok := model.ParseDocumentStatus(in.Status)
		if !ok {
			return nil, invalid("unknown document status %q", in.Status)
		}
		status = s
	}

	var projectID *string
	if in.ProjectID != nil && strings.TrimSpace(*in.ProjectID) != "" {
		pid := strings.TrimSpace(*in.ProjectID)
		if err := checkID("project", pid); err != nil {
			return nil, err
		}
		p, err := c.Store.GetProject(ctx, pid)
		if err != nil {
			return nil, lookupErr("project", pid, err)
		}
		if !p.CanView(in.OwnerID) {
			return nil, lookupErr("project", pid, store.ErrNotFound)
		}
		projectID = &pid
	}

	pages := in.Pages
	if len(pages) == 0 {
		pages = []model.Page{{Content: in.Content}}
	}
	pages = normalizePages(pages)
	content := joinPages(pages)

	d := &model.Document{
		ID:        uuid.NewString(),
		OwnerID:   in.OwnerID,
		ProjectID: projectID,
		Title:     title,
		Content:   content,
		WordCount: wordcount.Count(content),
		Status:    status,
		Pages:     pages,
	}
	if err := c.Store.CreateDocument(ctx, d); err != nil {
		return nil, primaryErr("document", d.ID, err)
	}
	c.Log.Info(ctx, "document created", "document_id", d.ID, "owner_id", d.OwnerID, "words", d.WordCount)

	ch := projectChange{DocID: d.ID, Delta: d.WordCount, Link: true}
	if projectID != nil {
		ch.ProjectID = *projectID
	}
	c.settle(ctx, ch, d.OwnerID, d.WordCount)
	return d, nil
}

// GetDocument returns a document its owner or a member of its project may read.
func (c *Coordinator) GetDocument(ctx context.Context, actorID, docID string) (*model.Document, error) {
	if err := checkID("document", docID); err != nil {
		return nil, err
	}
	d, err := c.Store.GetDocument(ctx, docID)
	if err != nil {
		return nil, lookupErr("document", docID, err)
	}
	if d.OwnerID == actorID {
		return d, nil
	}
	if d.ProjectID != nil {
		p, err := c.Store.GetProject(ctx, *d.ProjectID)
		if err == nil && p.CanView(actorID) {
			return d, nil
		}
	}
	return nil, lookupErr("document", docID, store.ErrNotFound)
}

type DocumentFilter struct {
	ProjectID string
	// Standalone keeps only documents outside any project.
	Standalone bool
}

// ListDocuments lists the actor's own documents, or every document of a
// project the actor can see when ProjectID is set.
func (c *Coordinator) ListDocuments(ctx context.Context, actorID string, f DocumentFilter) ([]model.Document, error) {
	if f.ProjectID == "" {
		return c.Store.FindDocuments(ctx, store.DocumentQuery{OwnerID: actorID, Standalone: f.Standalone})
	}
	if f.Standalone {
		return nil, invalid("standalone and project filters are exclusive")
	}
	if _, err := c.GetProject(ctx, actorID, f.ProjectID); err != nil {
		return nil, err
	}
	return c.Store.FindDocuments(ctx, store.DocumentQuery{ProjectID: f.ProjectID})
}

// UpdateDocument applies patch to a document owned by actorID. A content
// change recomputes the word count, snapshots the previous text into
// history and propagates the delta.
func (c *Coordinator) UpdateDocument(ctx context.Context, actorID, docID string, patch DocumentPatch) (*model.Document, error) {
	if err := checkID("document", docID); err != nil {
		return nil, err
	}

	var title, notes string
	var err error
	if patch.Title != nil {
		if title, err = checkText("title", *patch.Title, 1, maxTitleLen); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		if notes, err = checkText("notes", *patch.Notes, 0, maxNotesLen); err != nil {
			return nil, err
		}
	}
	var status model.DocumentStatus
	if patch.Status != nil {
		s, ok := model.ParseDocumentStatus(*patch.Status)
		if !ok {
			return nil, invalid("unknown document status %q", *patch.Status)
		}
		status = s
	}

	var (
		delta     int
		projectID string
	)
	d, err := c.Store.MutateDocument(ctx, docID, func(d *model.Document) error {
		if d.OwnerID != actorID {
			return lookupErr("document", docID, store.ErrNotFound)
		}
		if patch.Title != nil {
			d.Title = title
		}
		if patch.Notes != nil {
			d.Notes = notes
		}
		if patch.Status != nil {
			d.Status = status
		}
		if patch.WorldBuilding != nil {
			d.WorldBuilding = datatypes.NewJSONType(patch.WorldBuilding.Clone())
		}

		var pages []model.Page
		switch {
		case patch.Pages != nil:
			pages = normalizePages(*patch.Pages)
		case patch.Content != nil:
			if len(d.Pages) > 1 {
				return invalid("document %s has %d pages; send pages instead of content", docID, len(d.Pages))
			}
			first := model.Page{Content: *patch.Content}
			if len(d.Pages) > 0 {
				first.ID, first.Title = d.Pages[0].ID, d.Pages[0].Title
			}
			pages = normalizePages([]model.Page{first})
		default:
			return nil
		}

		content := joinPages(pages)
		d.Pages = pages
		dl, n, changed := wordcount.Delta(d.Content, d.WordCount, content)
		if !changed {
			return nil
		}
		d.History = append(d.History, model.Snapshot{
			Content:   d.Content,
			WordCount: d.WordCount,
			SavedAt:   c.Clock.Now(),
		})
		d.Content = content
		d.WordCount = n
		delta = dl
		if d.ProjectID != nil {
			projectID = *d.ProjectID
		}
		return nil
	})
	if err != nil {
		return nil, mutateErr("document", docID, err)
	}
	if delta == 0 {
		return d, nil
	}

	c.Log.Debug(ctx, "document content changed", "document_id", d.ID, "delta", delta, "words", d.WordCount)
	c.settle(ctx, projectChange{ProjectID: projectID, DocID: d.ID, Delta: delta}, actorID, delta)
	return d, nil
}

// DeleteDocument removes a document owned by actorID and withdraws its
// words from the project and the owner's day.
func (c *Coordinator) DeleteDocument(ctx context.Context, actorID, docID string) error {
	if err := checkID("document", docID); err != nil {
		return err
	}
	d, err := c.Store.GetDocument(ctx, docID)
	if err != nil {
		return lookupErr("document", docID, err)
	}
	if d.OwnerID != actorID {
		return lookupErr("document", docID, store.ErrNotFound)
	}
	if err := c.Store.DeleteDocument(ctx, docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return lookupErr("document", docID, err)
		}
		return primaryErr("document", docID, err)
	}
	c.Log.Info(ctx, "document deleted", "document_id", d.ID, "words", d.WordCount)

	ch := projectChange{DocID: d.ID, Delta: -d.WordCount, Unlink: true}
	if d.ProjectID != nil {
		ch.ProjectID = *d.ProjectID
	}
	c.settle(ctx, ch, d.OwnerID, -d.WordCount)
	return nil
}
