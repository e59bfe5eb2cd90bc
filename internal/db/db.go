package db

import (
	"fmt"

	"workdesk/internal/account"
	"workdesk/internal/auth"
	"workdesk/internal/blog"
	"workdesk/internal/sequence"
	"workdesk/internal/task"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&task.Task{},
		&task.Comment{},
		&task.History{},
		&account.Account{},
		&blog.Post{},
		&blog.Ranking{},
		&sequence.Counter{},
	); err != nil {
		return err
	}

	// Task numbers are unique once assigned; 0 marks a not-yet-migrated row.
	if err := gdb.Exec(`
create unique index if not exists uq_work_tasks_number
on work_tasks(number)
where number > 0;
`).Error; err != nil {
		return err
	}

	// Serial uniqueness per author per month, the allocator's invariant.
	if err := gdb.Exec(`
create unique index if not exists uq_work_blog_posts_serial
on work_blog_posts(author_id, month_key, serial_number);
`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_work_task_comments_task on work_task_comments(task_id, number);`,
		`create index if not exists idx_work_task_histories_task_created on work_task_histories(task_id, created_at desc);`,
		`create index if not exists idx_work_blog_posts_month on work_blog_posts(month_key, author);`,
		`create index if not exists idx_work_users_approved on work_users(is_approved);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
