package writing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"inkwell/internal/model"
	"inkwell/internal/store"

	"github.com/google/uuid"
)

type ProjectInput struct {
	Name            string
	Description     string
	Status          model.ProjectStatus
	TargetWordCount int
	StartDate       *time.Time
	DueDate         *time.Time
	Tags            []string
}

type ProjectPatch struct {
	Name            *string
	Description     *string
	Status          *model.ProjectStatus
	TargetWordCount *int
	StartDate       *time.Time
	DueDate         *time.Time
	Tags            *[]string

	// ClearStartDate and ClearDueDate unset a date. They cannot be combined
	// with a new value for the same date.
	ClearStartDate bool
	ClearDueDate   bool
}

type ProjectFilter struct {
	Status model.ProjectStatus
	Search string
}

func checkDates(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return invalid("due date cannot be before start date")
	}
	return nil
}

func (c *Coordinator) CreateProject(ctx context.Context, ownerID string, in ProjectInput) (*model.Project, error) {
	if err := checkID("user", ownerID); err != nil {
		return nil, err
	}
	name, err := checkText("name", in.Name, 1, maxProjectNameLen)
	if err != nil {
		return nil, err
	}
	desc, err := checkText("description", in.Description, 0, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.ProjectDraft
	}
	if !status.Valid() {
		return nil, invalid("unknown project status %q", status)
	}
	if in.TargetWordCount < 0 {
		return nil, invalid("target word count cannot be negative")
	}
	if err := checkDates(in.StartDate, in.DueDate); err != nil {
		return nil, err
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	owner, err := c.Store.GetUser(ctx, ownerID)
	if err != nil {
		return nil, lookupErr("user", ownerID, err)
	}
	plan := owner.Plan()
	if plan.ProjectLimit != model.Unlimited {
		n, err := c.Store.CountProjects(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("count projects of %s: %w", ownerID, err)
		}
		if !plan.AllowsProject(n) {
			return nil, fmt.Errorf("%w: project limit reached (%d on the %s plan)", ErrForbidden, plan.ProjectLimit, plan.Type)
		}
	}

	p := &model.Project{
		ID:              uuid.NewString(),
		OwnerID:         ownerID,
		Name:            name,
		Description:     desc,
		Status:          status,
		TargetWordCount: in.TargetWordCount,
		StartDate:       in.StartDate,
		DueDate:         in.DueDate,
		DocumentIDs:     []string{},
		Collaborators:   []string{},
		Tags:            tags,
	}
	if err := c.Store.CreateProject(ctx, p); err != nil {
		return nil, primaryErr("project", p.ID, err)
	}
	c.Log.Info(ctx, "project created", "project_id", p.ID, "owner_id", ownerID)

	c.evaluate(ctx, ownerID)
	return p, nil
}

func (c *Coordinator) GetProject(ctx context.Context, actorID, projectID string) (*model.Project, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	p, err := c.Store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr("project", projectID, err)
	}
	if !p.CanView(actorID) {
		return nil, lookupErr("project", projectID, store.ErrNotFound)
	}
	return p, nil
}

// ListProjects returns projects the actor owns or collaborates on.
func (c *Coordinator) ListProjects(ctx context.Context, actorID string, f ProjectFilter) ([]model.Project, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalid("unknown project status %q", f.Status)
	}
	return c.Store.FindProjects(ctx, store.ProjectQuery{
		MemberID: actorID,
		Status:   f.Status,
		Search:   strings.TrimSpace(f.Search),
	})
}

// ownedProject gates owner-only operations. Collaborators get ErrForbidden,
// strangers ErrNotFound.
func ownedProject(p *model.Project, actorID string) error {
	if p.OwnerID == actorID {
		return nil
	}
	if p.CanView(actorID) {
		return fmt.Errorf("%w: only the owner can change project %s", ErrForbidden, p.ID)
	}
	return lookupErr("project", p.ID, store.ErrNotFound)
}

func (c *Coordinator) UpdateProject(ctx context.Context, actorID, projectID string, patch ProjectPatch) (*model.Project, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	var name, desc string
	var tags []string
	var err error
	if patch.Name != nil {
		if name, err = checkText("name", *patch.Name, 1, maxProjectNameLen); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		if desc, err = checkText("description", *patch.Description, 0, maxDescriptionLen); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("unknown project status %q", *patch.Status)
	}
	if patch.TargetWordCount != nil && *patch.TargetWordCount < 0 {
		return nil, invalid("target word count cannot be negative")
	}
	if patch.Tags != nil {
		if tags, err = NormalizeTags(*patch.Tags); err != nil {
			return nil, err
		}
	}
	if patch.ClearStartDate && patch.StartDate != nil {
		return nil, invalid("startDate cannot be both set and cleared")
	}
	if patch.ClearDueDate && patch.DueDate != nil {
		return nil, invalid("dueDate cannot be both set and cleared")
	}

	p, err := c.Store.MutateProject(ctx, projectID, func(p *model.Project) error {
		if err := ownedProject(p, actorID); err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = name
		}
		if patch.Description != nil {
			p.Description = desc
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.TargetWordCount != nil {
			p.TargetWordCount = *patch.TargetWordCount
		}
		switch {
		case patch.ClearStartDate:
			p.StartDate = nil
		case patch.StartDate != nil:
			p.StartDate = patch.StartDate
		}
		switch {
		case patch.ClearDueDate:
			p.DueDate = nil
		case patch.DueDate != nil:
			p.DueDate = patch.DueDate
		}
		if patch.Tags != nil {
			p.Tags = tags
		}
		return checkDates(p.StartDate, p.DueDate)
	})
	if err != nil {
		return nil, mutateErr("project", projectID, err)
	}
	return p, nil
}

// DeleteProject removes the project with all of its documents and withdraws
// their words from each document owner's ledger.
func (c *Coordinator) DeleteProject(ctx context.Context, actorID, projectID string) error {
	if err := checkID("project", projectID); err != nil {
		return err
	}
	p, err := c.Store.GetProject(ctx, projectID)
	if err != nil {
		return lookupErr("project", projectID, err)
	}
	if err := ownedProject(p, actorID); err != nil {
		return err
	}

	docs, err := c.Store.DeleteProject(ctx, projectID)
	if err != nil {
		return mutateErr("project", projectID, err)
	}
	c.Log.Info(ctx, "project deleted", "project_id", projectID, "documents", len(docs))

	words := map[string]int{}
	var owners []string
	for _, d := range docs {
		if _, ok := words[d.OwnerID]; !ok {
			owners = append(owners, d.OwnerID)
		}
		words[d.OwnerID] += d.WordCount
	}
	for _, id := range owners {
		c.applyLedger(ctx, id, -words[id])
	}
	return nil
}

// AddCollaborator shares a project with the user registered under email and
// notifies them.
func (c *Coordinator) AddCollaborator(ctx context.Context, ownerID, projectID, email string) (*model.Project, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	u, err := c.Store.FindUser(ctx, store.UserQuery{Email: email})
	if err != nil {
		return nil, lookupErr("user", email, err)
	}
	if u.ID == ownerID {
		return nil, invalid("cannot add yourself as a collaborator")
	}

	var name string
	p, err := c.Store.MutateProject(ctx, projectID, func(p *model.Project) error {
		if err := ownedProject(p, ownerID); err != nil {
			return err
		}
		if slices.Contains(p.Collaborators, u.ID) {
			return fmt.Errorf("%w: %s already collaborates on project %s", ErrConflict, email, projectID)
		}
		p.Collaborators = append(p.Collaborators, u.ID)
		name = p.Name
		return nil
	})
	if err != nil {
		return nil, mutateErr("project", projectID, err)
	}

	c.notify(ctx, u.ID, model.NotifyCollaboration, fmt.Sprintf("You were added as a collaborator on %q", name))
	return p, nil
}

func (c *Coordinator) RemoveCollaborator(ctx context.Context, ownerID, projectID, collaboratorID string) (*model.Project, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	if collaboratorID == ownerID {
		return nil, invalid("cannot remove the project owner")
	}
	p, err := c.Store.MutateProject(ctx, projectID, func(p *model.Project) error {
		if err := ownedProject(p, ownerID); err != nil {
			return err
		}
		if p.OwnerID == collaboratorID {
			return invalid("cannot remove the project owner")
		}
		if !slices.Contains(p.Collaborators, collaboratorID) {
			return fmt.Errorf("%w: user %s is not a collaborator", ErrNotFound, collaboratorID)
		}
		p.Collaborators = slices.DeleteFunc(p.Collaborators, func(id string) bool { return id == collaboratorID })
		return nil
	})
	if err != nil {
		return nil, mutateErr("project", projectID, err)
	}
	return p, nil
}

// ReconcileProject recomputes the document set and word total of a project
// from its live documents. Returned errors wrap the store's, so
// store.ErrNotFound means the project is gone.
func (c *Coordinator) ReconcileProject(ctx context.Context, projectID string) error {
	docs, err := c.Store.FindDocuments(ctx, store.DocumentQuery{ProjectID: projectID})
	if err != nil {
		return fmt.Errorf("reconcile %s: list documents: %w", projectID, err)
	}
	ids := make([]string, 0, len(docs))
	total := 0
	for _, d := range docs {
		ids = append(ids, d.ID)
		total += d.WordCount
	}

	var before int
	_, err = c.Store.MutateProject(ctx, projectID, func(p *model.Project) error {
		before = p.CurrentWordCount
		p.DocumentIDs = ids
		p.CurrentWordCount = total
		return nil
	})
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", projectID, err)
	}
	if before != total {
		c.Log.Warn(ctx, "project word count drift repaired", "project_id", projectID, "was", before, "now", total)
	}
	return nil
}

// notify appends a notification to a user; failures are logged only.
func (c *Coordinator) notify(ctx context.Context, userID string, typ model.NotificationType, msg string) {
	_, err := c.Store.MutateUser(ctx, userID, func(u *model.User) error {
		u.Notifications = append(u.Notifications, model.Notification{
			ID:        uuid.NewString(),
			Type:      typ,
			Message:   msg,
			Timestamp: c.Clock.Now(),
		})
		return nil
	})
	if err != nil {
		c.report(ctx, &SecondaryEffectError{Step: "notify", Entity: "user", ID: userID, Err: err})
	}
}
