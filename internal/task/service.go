package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workdesk/internal/sequence"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Notifier receives best-effort events for new history entries. Publish
// must never block the caller.
type Notifier interface {
	Publish(ev HistoryEvent)
}

type HistoryEvent struct {
	TaskNumber int64
	TaskTitle  string
	Status     HistoryStatus
	Title      string
	Content    string
	AuthorName string
}

type Service struct {
	DB  *gorm.DB
	Seq *sequence.Allocator

	// Notifier may be nil; history creation then skips dispatch.
	Notifier Notifier
}

type CreateInput struct {
	Title       string
	Description string
	Category    Category
	URL         string
	Attachments Attachments
	DueDate     *time.Time
}

// Create allocates the task number and inserts the record in one
// transaction, so a failed insert does not consume a number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	t := Task{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      StatusPreparing,
		URL:         in.URL,
		Attachments: in.Attachments,
		DueDate:     in.DueDate,
		Comments:    []Comment{},
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.Seq.NextTaskNumber(tx)
		if err != nil {
			return err
		}
		t.Number = number
		return tx.Create(&t).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*Task, error) {
	var t Task
	err := s.DB.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("number asc") }).
		First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns tasks newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status Status) ([]Task, error) {
	q := s.DB.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("number asc") })
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		q = q.Where("status = ?", status)
	}
	var tasks []Task
	if err := q.Order("created_at desc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateInput is the allow-list of mutable task fields. Nil fields keep
// their prior values.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *Category
	Status      *Status
	URL         *string
	Attachments *Attachments
	DueDate     *time.Time
}

func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput) (*Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *in.Category)
		}
		t.Category = *in.Category
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		t.Status = *in.Status
	}
	if in.URL != nil {
		t.URL = *in.URL
	}
	if in.Attachments != nil {
		t.Attachments = *in.Attachments
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}

	// completion timestamp follows the status
	if t.Status == StatusCompleted && t.CompletedAt == nil {
		now := time.Now()
		t.CompletedAt = &now
	} else if t.Status != StatusCompleted {
		t.CompletedAt = nil
	}

	if err := s.DB.WithContext(ctx).Omit("Comments").Save(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Delete(&Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	// comments go with the task; histories keep their own lifecycle
	return s.DB.WithContext(ctx).Where("task_id = ?", id).Delete(&Comment{}).Error
}

// AddComment appends a comment with the next per-task number.
func (s *Service) AddComment(ctx context.Context, taskID, authorID uint64, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	var c Comment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Task
		if err := tx.First(&t, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		number, err := s.Seq.NextCommentNumber(tx, taskID)
		if err != nil {
			return err
		}
		c = Comment{
			TaskID:   taskID,
			Number:   number,
			AuthorID: authorID,
			Content:  content,
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MigrateTaskNumbers backfills numbers on tasks that never got one, oldest
// first, continuing past the current maximum, and raises the counter so new
// tasks do not collide with the backfilled range.
func (s *Service) MigrateTaskNumbers(ctx context.Context) (int, error) {
	migrated := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unnumbered []Task
		if err := tx.Where("number = 0").Order("created_at asc").Find(&unnumbered).Error; err != nil {
			return err
		}
		if len(unnumbered) == 0 {
			return nil
		}

		var maxNumber int64
		if err := tx.Model(&Task{}).Select("coalesce(max(number), 0)").Scan(&maxNumber).Error; err != nil {
			return err
		}

		next := maxNumber + 1
		for i := range unnumbered {
			if err := tx.Model(&Task{}).Where("id = ?", unnumbered[i].ID).
				Update("number", next).Error; err != nil {
				return err
			}
			next++
			migrated++
		}
		return s.Seq.SyncTaskCounter(tx, next-1)
	})
	if err != nil {
		return 0, err
	}
	return migrated, nil
}
