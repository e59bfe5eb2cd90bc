package task

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Category string

const (
	CategoryFeature   Category = "feature"
	CategoryDesign    Category = "design"
	CategoryMarketing Category = "marketing"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFeature, CategoryDesign, CategoryMarketing, CategoryOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPreparing  Status = "preparing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPreparing, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Attachment struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Attachments is stored as a single jsonb column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		a = Attachments{}
	}
	b, err := json.Marshal(a)
	return string(b), err
}

func (a *Attachments) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("attachments: unsupported column type")
}

// Task is a kanban card. Number is assigned once at creation and never
// changes afterwards.
type Task struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	Number      int64       `gorm:"not null;default:0" json:"number"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text;not null;default:''" json:"description"`
	Category    Category    `gorm:"type:text;not null" json:"category"`
	Status      Status      `gorm:"index;type:text;not null;default:'preparing'" json:"status"`
	URL         string      `gorm:"not null;default:''" json:"url"`
	Attachments Attachments `gorm:"type:jsonb" json:"attachments"`
	DueDate     *time.Time  `gorm:"index" json:"dueDate,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Comments    []Comment   `gorm:"foreignKey:TaskID" json:"comments"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Task) TableName() string { return "work_tasks" }

// Comment is an append-only note on a task, numbered per task.
type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	TaskID    uint64    `gorm:"index;not null" json:"taskId"`
	Number    int64     `gorm:"not null" json:"number"`
	AuthorID  uint64    `gorm:"not null" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Comment) TableName() string { return "work_task_comments" }

type HistoryStatus string

const (
	HistoryMaking     HistoryStatus = "making"
	HistoryConfirming HistoryStatus = "confirming"
	HistoryInProgress HistoryStatus = "in_progress"
	HistoryCompleted  HistoryStatus = "completed"
	HistoryOnHold     HistoryStatus = "on_hold"
	HistoryCancelled  HistoryStatus = "cancelled"
)

func (s HistoryStatus) Valid() bool {
	switch s {
	case HistoryMaking, HistoryConfirming, HistoryInProgress,
		HistoryCompleted, HistoryOnHold, HistoryCancelled:
		return true
	}
	return false
}

// History is a work log entry attached to a task. Its lifecycle is
// independent of the task: deleting the task does not cascade here.
type History struct {
	ID          uint64        `gorm:"primaryKey" json:"id"`
	TaskID      uint64        `gorm:"index;not null" json:"taskId"`
	Status      HistoryStatus `gorm:"type:text;not null;default:'in_progress'" json:"status"`
	Title       string        `gorm:"not null" json:"title"`
	Content     string        `gorm:"type:text;not null;default:''" json:"content"`
	Attachments Attachments   `gorm:"type:jsonb" json:"attachments"`
	AuthorID    uint64        `gorm:"not null" json:"author"`
	AuthorName  string        `gorm:"not null" json:"authorName"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func (History) TableName() string { return "work_task_histories" }
