package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"workdesk/internal/auth"

	"gorm.io/gorm"
)

type CreateHistoryInput struct {
	Status      HistoryStatus
	Title       string
	Content     string
	Attachments Attachments
}

// CreateHistory records a work log entry on a task and publishes a
// best-effort notification. A failed dispatch never rolls back the write.
func (s *Service) CreateHistory(ctx context.Context, caller auth.Identity, taskID uint64, in CreateHistoryInput) (*History, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = HistoryInProgress
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}

	var t Task
	if err := s.DB.WithContext(ctx).First(&t, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	h := History{
		TaskID:      taskID,
		Status:      in.Status,
		Title:       in.Title,
		Content:     in.Content,
		Attachments: in.Attachments,
		AuthorID:    caller.UserID,
		AuthorName:  caller.Name,
	}
	if err := s.DB.WithContext(ctx).Create(&h).Error; err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.Publish(HistoryEvent{
			TaskNumber: t.Number,
			TaskTitle:  t.Title,
			Status:     h.Status,
			Title:      h.Title,
			Content:    h.Content,
			AuthorName: h.AuthorName,
		})
	}
	return &h, nil
}

// ListHistories returns entries for a task newest first plus the total
// count. limit 0 means no limit.
func (s *Service) ListHistories(ctx context.Context, taskID uint64, limit, offset int) ([]History, int64, error) {
	var t Task
	if err := s.DB.WithContext(ctx).First(&t, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&History{}).
		Where("task_id = ?", taskID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := s.DB.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at desc, id desc")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var histories []History
	if err := q.Find(&histories).Error; err != nil {
		return nil, 0, err
	}
	return histories, total, nil
}

// UpdateHistoryInput is the allow-list for history edits; nothing else may
// be merged.
type UpdateHistoryInput struct {
	Status      *HistoryStatus
	Title       *string
	Content     *string
	Attachments *Attachments
}

// UpdateHistory lets an admin or the original author edit an entry.
func (s *Service) UpdateHistory(ctx context.Context, caller auth.Identity, historyID uint64, in UpdateHistoryInput) (*History, error) {
	var h History
	if err := s.DB.WithContext(ctx).First(&h, historyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.Role.AtLeast(auth.RoleAdmin) && h.AuthorID != caller.UserID {
		return nil, ErrForbidden
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		h.Status = *in.Status
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		h.Title = title
	}
	if in.Content != nil {
		h.Content = *in.Content
	}
	if in.Attachments != nil {
		h.Attachments = *in.Attachments
	}

	if err := s.DB.WithContext(ctx).Save(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Service) DeleteHistory(ctx context.Context, caller auth.Identity, historyID uint64) error {
	var h History
	if err := s.DB.WithContext(ctx).First(&h, historyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !caller.Role.AtLeast(auth.RoleAdmin) && h.AuthorID != caller.UserID {
		return ErrForbidden
	}
	return s.DB.WithContext(ctx).Delete(&History{}, historyID).Error
}
