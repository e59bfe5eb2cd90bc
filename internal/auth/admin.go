package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMasterOnlyEmail = errors.New("master role is reserved for the designated email")
	ErrMasterImmutable = errors.New("the master account cannot be modified")
)

// UserUpdate carries the two fields a master may change. Nil fields keep
// their prior values.
type UserUpdate struct {
	Role       *Role
	IsApproved *bool
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.DB.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, err
}

func (s *Service) UpdateUser(ctx context.Context, userID uint64, upd UserUpdate) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, ErrInvalidInput
		}
		if *upd.Role == RoleMaster && u.Email != s.MasterEmail {
			return nil, ErrMasterOnlyEmail
		}
		if u.Role == RoleMaster && *upd.Role != RoleMaster {
			return nil, ErrMasterImmutable
		}
		u.Role = *upd.Role
	}
	if upd.IsApproved != nil {
		u.IsApproved = *upd.IsApproved
	}

	if err := s.DB.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) DeleteUser(ctx context.Context, userID uint64) error {
	var u User
	if err := s.DB.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.Role == RoleMaster {
		return ErrMasterImmutable
	}
	return s.DB.WithContext(ctx).Delete(&User{}, userID).Error
}
