package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("account not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	DB     *gorm.DB
	Sealer *Sealer
}

type Input struct {
	Platform    string
	AccountName string
	Username    string
	Password    string
	Note        string
}

func (in *Input) validate() error {
	in.Platform = strings.TrimSpace(in.Platform)
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.Username = strings.TrimSpace(in.Username)
	if in.Platform == "" || in.AccountName == "" || in.Username == "" || in.Password == "" {
		return fmt.Errorf("%w: platform, accountName, username and password are required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, createdBy uint64, in Input) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sealed, err := s.Sealer.Seal(in.Password)
	if err != nil {
		return nil, err
	}

	a := Account{
		Platform:    in.Platform,
		AccountName: in.AccountName,
		Username:    in.Username,
		Password:    sealed,
		Note:        in.Note,
		CreatedBy:   createdBy,
	}
	if err := s.DB.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return s.open(&a)
}

// List returns accounts most recently used first, optionally filtered by
// platform.
func (s *Service) List(ctx context.Context, platform string) ([]Account, error) {
	q := s.DB.WithContext(ctx)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	var accounts []Account
	if err := q.Order("last_used_at desc nulls last, created_at desc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	for i := range accounts {
		if _, err := s.open(&accounts[i]); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Replace overwrites every editable field, PUT semantics.
func (s *Service) Replace(ctx context.Context, id uint64, in Input) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sealed, err := s.Sealer.Seal(in.Password)
	if err != nil {
		return nil, err
	}

	a.Platform = in.Platform
	a.AccountName = in.AccountName
	a.Username = in.Username
	a.Password = sealed
	a.Note = in.Note
	if err := s.DB.WithContext(ctx).Save(a).Error; err != nil {
		return nil, err
	}
	return s.open(a)
}

// Touch bumps lastUsedAt; called on every credential-copy action.
func (s *Service) Touch(ctx context.Context, id uint64) (*Account, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a.LastUsedAt = &now
	if err := s.DB.WithContext(ctx).Model(a).Update("last_used_at", now).Error; err != nil {
		return nil, err
	}
	return s.open(a)
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	res := s.DB.WithContext(ctx).Delete(&Account{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uint64) (*Account, error) {
	var a Account
	if err := s.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) open(a *Account) (*Account, error) {
	plain, err := s.Sealer.Open(a.Password)
	if err != nil {
		return nil, fmt.Errorf("open account %d: %w", a.ID, err)
	}
	a.Password = plain
	return a, nil
}
