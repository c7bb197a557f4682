package store

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists records in postgres. Mutations lock the row with
// SELECT ... FOR UPDATE for the duration of fn.
type GormStore struct {
	DB *gorm.DB
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.DB.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUser(ctx context.Context, q UserQuery) (*model.User, error) {
	tx := s.DB.WithContext(ctx)
	login, email := normalize(q.Login), normalize(q.Email)
	switch {
	case login != "":
		tx = tx.Where("lower(username) = ? OR lower(email) = ?", login, login)
	case email != "":
		tx = tx.Where("lower(email) = ?", email)
	default:
		return nil, ErrNotFound
	}

	var u model.User
	if err := tx.First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) MutateUser(ctx context.Context, id string, fn func(u *model.User) error) (*model.User, error) {
	var u model.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&u).Error; err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		u.ID = id
		return tx.Save(&u).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) CreateProject(ctx context.Context, p *model.Project) error {
	return translate(s.DB.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) FindProjects(ctx context.Context, q ProjectQuery) ([]model.Project, error) {
	tx := s.DB.WithContext(ctx).Model(&model.Project{})
	if q.OwnerID != "" {
		tx = tx.Where("owner_id = ?", q.OwnerID)
	}
	if q.MemberID != "" {
		tx = tx.Where("(owner_id = ? OR ? = any(collaborators))", q.MemberID, q.MemberID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("(name ILIKE ? OR description ILIKE ?)", like, like)
	}

	var rows []model.Project
	if err := tx.Order("updated_at desc").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CountProjects(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&model.Project{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (s *GormStore) MutateProject(ctx context.Context, id string, fn func(p *model.Project) error) (*model.Project, error) {
	var p model.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&p).Error; err != nil {
			return err
		}
		owner := p.OwnerID
		if err := fn(&p); err != nil {
			return err
		}
		p.ID, p.OwnerID = id, owner
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) AdjustProjectWordCount(ctx context.Context, id string, delta int) error {
	res := s.DB.WithContext(ctx).Exec(`
update projects
set current_word_count = greatest(0, current_word_count + ?), updated_at = now()
where id = ?`, delta, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteProject(ctx context.Context, id string) ([]model.Document, error) {
	var removed []model.Document
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&p).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Order("id").Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return removed, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, d *model.Document) error {
	return translate(s.DB.WithContext(ctx).Create(d).Error)
}

func (s *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) FindDocuments(ctx context.Context, q DocumentQuery) ([]model.Document, error) {
	tx := s.DB.WithContext(ctx).Model(&model.Document{})
	if q.OwnerID != "" {
		tx = tx.Where("owner_id = ?", q.OwnerID)
	}
	if q.ProjectID != "" {
		tx = tx.Where("project_id = ?", q.ProjectID)
	}
	if q.Standalone {
		tx = tx.Where("project_id is null")
	}

	var rows []model.Document
	if err := tx.Order("updated_at desc").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CountDocuments(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&model.Document{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (s *GormStore) MutateDocument(ctx context.Context, id string, fn func(d *model.Document) error) (*model.Document, error) {
	var d model.Document
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&d).Error; err != nil {
			return err
		}
		owner := d.OwnerID
		if err := fn(&d); err != nil {
			return err
		}
		d.ID, d.OwnerID = id, owner
		return tx.Save(&d).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*GormStore)(nil)
var _ Store = (*MemoryStore)(nil)
