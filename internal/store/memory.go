package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"inkwell/internal/model"
)

// MemoryStore keeps every record in process memory. Records are copied on
// the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[string]model.User
	projects  map[string]model.Project
	documents map[string]model.Document

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]model.User),
		projects:  make(map[string]model.Project),
		documents: make(map[string]model.Document),
		now:       time.Now,
	}
}

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if normalize(existing.Username) == normalize(u.Username) || normalize(existing.Email) == normalize(u.Email) {
			return ErrConflict
		}
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u.Clone()
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u.Clone()
	return &out, nil
}

func (s *MemoryStore) FindUser(_ context.Context, q UserQuery) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	login, email := normalize(q.Login), normalize(q.Email)
	for _, u := range s.users {
		if login != "" && (normalize(u.Username) == login || normalize(u.Email) == login) {
			out := u.Clone()
			return &out, nil
		}
		if email != "" && normalize(u.Email) == email {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) MutateUser(_ context.Context, id string, fn func(u *model.User) error) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	next.UpdatedAt = s.now()
	s.users[id] = next.Clone()
	return &next, nil
}

func (s *MemoryStore) CreateProject(_ context.Context, p *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return ErrConflict
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.projects[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) GetProject(_ context.Context, id string) (*model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (s *MemoryStore) FindProjects(_ context.Context, q ProjectQuery) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := normalize(q.Search)
	out := make([]model.Project, 0)
	for _, p := range s.projects {
		if q.OwnerID != "" && p.OwnerID != q.OwnerID {
			continue
		}
		if q.MemberID != "" && !p.CanView(q.MemberID) {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if search != "" && !strings.Contains(normalize(p.Name+" "+p.Description), search) {
			continue
		}
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b model.Project) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) CountProjects(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MutateProject(_ context.Context, id string, fn func(p *model.Project) error) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	next.OwnerID = cur.OwnerID
	next.UpdatedAt = s.now()
	s.projects[id] = next.Clone()
	return &next, nil
}

func (s *MemoryStore) AdjustProjectWordCount(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.CurrentWordCount = max(0, p.CurrentWordCount+delta)
	p.UpdatedAt = s.now()
	s.projects[id] = p
	return nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return nil, ErrNotFound
	}
	var removed []model.Document
	for did, d := range s.documents {
		if d.InProject(id) {
			removed = append(removed, d.Clone())
			delete(s.documents, did)
		}
	}
	delete(s.projects, id)
	slices.SortFunc(removed, func(a, b model.Document) int { return cmp.Compare(a.ID, b.ID) })
	return removed, nil
}

func (s *MemoryStore) CreateDocument(_ context.Context, d *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[d.ID]; ok {
		return ErrConflict
	}
	now := s.now()
	d.CreatedAt, d.UpdatedAt = now, now
	s.documents[d.ID] = d.Clone()
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := d.Clone()
	return &out, nil
}

func (s *MemoryStore) FindDocuments(_ context.Context, q DocumentQuery) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Document, 0)
	for _, d := range s.documents {
		if q.OwnerID != "" && d.OwnerID != q.OwnerID {
			continue
		}
		if q.ProjectID != "" && !d.InProject(q.ProjectID) {
			continue
		}
		if q.Standalone && d.ProjectID != nil {
			continue
		}
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b model.Document) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) CountDocuments(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MutateDocument(_ context.Context, id string, fn func(d *model.Document) error) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.ID = id
	next.OwnerID = cur.OwnerID
	next.UpdatedAt = s.now()
	s.documents[id] = next.Clone()
	return &next, nil
}

func (s *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return ErrNotFound
	}
	delete(s.documents, id)
	return nil
}
