package db

import (
	"fmt"

	"inkwell/internal/jobs"
	"inkwell/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.Document{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	stmts := []string{
		// Login is case-insensitive on either column.
		`create unique index if not exists uq_users_username_lower on users(lower(username));`,
		`create unique index if not exists uq_users_email_lower on users(lower(email));`,
		`create index if not exists idx_projects_owner_updated on projects(owner_id, updated_at desc);`,
		`create index if not exists idx_projects_collaborators on projects using gin (collaborators);`,
		`create index if not exists idx_documents_project on documents(project_id) where project_id is not null;`,
		`create index if not exists idx_documents_owner_updated on documents(owner_id, updated_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
		// At most one pending reconcile per project.
		`create unique index if not exists uq_jobs_pending_key on jobs(type, dedupe_key) where status = 'PENDING' and dedupe_key is not null;`,
		`alter table projects drop constraint if exists chk_projects_due_after_start;`,
		`alter table projects add constraint chk_projects_due_after_start check (due_date is null or start_date is null or due_date >= start_date);`,
		`alter table projects drop constraint if exists chk_projects_counts;`,
		`alter table projects add constraint chk_projects_counts check (current_word_count >= 0 and target_word_count >= 0);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
