package sequence

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Counter is a named last-assigned value. One row per sequence.
type Counter struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

func (Counter) TableName() string { return "work_counters" }

// Allocator hands out monotonic human-facing numbers. Every allocation is a
// single atomic upsert, so callers that allocate inside the transaction
// inserting the numbered record get all-or-nothing behavior: a rollback
// returns the number to the pool instead of burning it.
type Allocator struct {
	DB *gorm.DB
}

// NextTaskNumber allocates the next global task number, starting at 1.
func (a *Allocator) NextTaskNumber(tx *gorm.DB) (int64, error) {
	return a.next(tx, "tasks")
}

// NextCommentNumber allocates the next comment number within one task.
func (a *Allocator) NextCommentNumber(tx *gorm.DB, taskID uint64) (int64, error) {
	return a.next(tx, fmt.Sprintf("task_comments:%d", taskID))
}

// NextBlogSerial allocates the next serial for one author within one
// calendar month. A new author or a new month starts a fresh sequence at 1.
func (a *Allocator) NextBlogSerial(tx *gorm.DB, authorID uint64, monthKey string) (int64, error) {
	return a.next(tx, fmt.Sprintf("blog_posts:%d:%s", authorID, monthKey))
}

func (a *Allocator) next(tx *gorm.DB, name string) (int64, error) {
	if tx == nil {
		tx = a.DB
	}
	var value int64
	err := tx.Raw(`
insert into work_counters (name, value) values (?, 1)
on conflict (name) do update set value = work_counters.value + 1
returning value
`, name).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("allocate %q: %w", name, err)
	}
	return value, nil
}

// SyncTaskCounter raises the task counter to at least floor. Used after
// backfilling numbers so future allocations continue past them.
func (a *Allocator) SyncTaskCounter(tx *gorm.DB, floor int64) error {
	if tx == nil {
		tx = a.DB
	}
	return tx.Exec(`
insert into work_counters (name, value) values ('tasks', ?)
on conflict (name) do update set value =
  case when work_counters.value > excluded.value then work_counters.value else excluded.value end
`, floor).Error
}

// MonthKey partitions blog serials by calendar month, e.g. "2025-01".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
