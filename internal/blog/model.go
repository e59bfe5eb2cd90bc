package blog

import "time"

// Post tracks one blog posting and its search-rank checks. The
// (authorId, monthKey, serialNumber) tuple is unique; serials count up per
// author per calendar month.
type Post struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	URL          string    `gorm:"not null" json:"url"`
	Keyword      string    `gorm:"index;not null" json:"keyword"`
	Author       string    `gorm:"not null" json:"author"`
	AuthorID     uint64    `gorm:"index;not null" json:"authorId"`
	MonthKey     string    `gorm:"not null" json:"monthKey"`
	SerialNumber int64     `gorm:"not null" json:"serialNumber"`
	Rankings     []Ranking `gorm:"foreignKey:PostID" json:"rankings"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Post) TableName() string { return "work_blog_posts" }

// Ranking is one rank check, append-only.
type Ranking struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"index;not null" json:"postId"`
	Rank      int       `gorm:"not null" json:"rank"`
	CheckedAt time.Time `gorm:"not null" json:"checkedAt"`
	CheckedBy string    `gorm:"not null" json:"checkedBy"`
}

func (Ranking) TableName() string { return "work_blog_rankings" }
