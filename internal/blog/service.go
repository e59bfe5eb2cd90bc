package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workdesk/internal/auth"
	"workdesk/internal/sequence"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	DB  *gorm.DB
	Seq *sequence.Allocator

	// Now is swappable in tests to pin the month key.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateInput struct {
	Title   string
	URL     string
	Keyword string
	Rank    int
}

// Create assigns the month key from the clock and the next serial for the
// caller within that month, atomically with the insert. The first rank
// check is recorded alongside.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Keyword = strings.TrimSpace(in.Keyword)
	if in.Title == "" || in.URL == "" || in.Keyword == "" || in.Rank < 1 {
		return nil, fmt.Errorf("%w: title, url, keyword and a positive rank are required", ErrInvalidInput)
	}

	now := s.now()
	p := Post{
		Title:    in.Title,
		URL:      in.URL,
		Keyword:  in.Keyword,
		Author:   caller.Name,
		AuthorID: caller.UserID,
		MonthKey: sequence.MonthKey(now),
		Rankings: []Ranking{{
			Rank:      in.Rank,
			CheckedAt: now,
			CheckedBy: caller.Name,
		}},
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		serial, err := s.Seq.NextBlogSerial(tx, caller.UserID, p.MonthKey)
		if err != nil {
			return err
		}
		p.SerialNumber = serial
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id uint64) (*Post, error) {
	var p Post
	err := s.DB.WithContext(ctx).
		Preload("Rankings", func(db *gorm.DB) *gorm.DB { return db.Order("checked_at asc, id asc") }).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns posts newest first, optionally filtered by keyword substring
// (case-insensitive).
func (s *Service) List(ctx context.Context, keyword string) ([]Post, error) {
	q := s.DB.WithContext(ctx).
		Preload("Rankings", func(db *gorm.DB) *gorm.DB { return db.Order("checked_at asc, id asc") })
	if keyword != "" {
		q = q.Where("lower(keyword) like ?", "%"+strings.ToLower(keyword)+"%")
	}
	var posts []Post
	if err := q.Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateInput is the allow-list of mutable post fields. Month key and
// serial are immutable once assigned.
type UpdateInput struct {
	Title   *string
	URL     *string
	Keyword *string
}

func (s *Service) Update(ctx context.Context, id uint64, in UpdateInput) (*Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		p.Title = title
	}
	if in.URL != nil {
		p.URL = *in.URL
	}
	if in.Keyword != nil {
		p.Keyword = *in.Keyword
	}

	if err := s.DB.WithContext(ctx).Omit("Rankings").Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete is allowed for the original author and for admins.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uint64) error {
	var p Post
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if p.AuthorID != caller.UserID && !caller.Role.AtLeast(auth.RoleAdmin) {
		return ErrForbidden
	}
	if err := s.DB.WithContext(ctx).Where("post_id = ?", id).Delete(&Ranking{}).Error; err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(&Post{}, id).Error
}

// AddRanking appends a rank check and returns the post with the full
// ranking history.
func (s *Service) AddRanking(ctx context.Context, caller auth.Identity, postID uint64, rank int) (*Post, error) {
	if rank < 1 {
		return nil, fmt.Errorf("%w: rank must be a positive integer", ErrInvalidInput)
	}

	var p Post
	if err := s.DB.WithContext(ctx).First(&p, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	r := Ranking{
		PostID:    postID,
		Rank:      rank,
		CheckedAt: s.now(),
		CheckedBy: caller.Name,
	}
	if err := s.DB.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, postID)
}

type AuthorCount struct {
	Author string `json:"author"`
	Count  int64  `json:"count"`
}

type MonthStats struct {
	MonthKey string        `json:"monthKey"`
	Authors  []AuthorCount `json:"authors"`
}

// Stats groups post counts by month and author, newest month first, busiest
// author first.
func (s *Service) Stats(ctx context.Context) ([]MonthStats, error) {
	var rows []struct {
		MonthKey string
		Author   string
		Count    int64
	}
	err := s.DB.WithContext(ctx).Raw(`
select month_key, author, count(*) as count
from work_blog_posts
group by month_key, author
order by month_key desc, count desc, author asc
`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := []MonthStats{}
	for _, r := range rows {
		if len(stats) == 0 || stats[len(stats)-1].MonthKey != r.MonthKey {
			stats = append(stats, MonthStats{MonthKey: r.MonthKey})
		}
		last := &stats[len(stats)-1]
		last.Authors = append(last.Authors, AuthorCount{Author: r.Author, Count: r.Count})
	}
	return stats, nil
}
