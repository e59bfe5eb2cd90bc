package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnknownAccount     = errors.New("account does not exist")
	ErrInvalidCredentials = errors.New("password does not match")
	ErrPendingApproval    = errors.New("awaiting administrator approval")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidInput       = errors.New("invalid input")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

// Service is the authenticator plus the master-only user administration on
// top of the credential store.
type Service struct {
	DB *gorm.DB

	// MasterEmail is the only address that may hold RoleMaster.
	MasterEmail string
}

// Register creates a user in the pending state: role=user, not approved.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if !emailRe.MatchString(email) || len(password) < minPasswordLen || name == "" {
		return nil, ErrInvalidInput
	}

	var existing User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         RoleUser,
		IsApproved:   false,
	}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		// unique index may still fire under a racing registration
		return nil, ErrEmailTaken
	}
	return &u, nil
}

// Authenticate validates the credentials and the approval gate. The three
// failure kinds stay distinct so the UI can show distinct messages.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	var u User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	if !ComparePassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsApproved {
		return nil, ErrPendingApproval
	}
	return &u, nil
}

// PromoteMaster is the one-time bootstrap: the configured master email gets
// role=master and approval. Idempotent; the account must already exist.
func (s *Service) PromoteMaster(ctx context.Context) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("email = ?", s.MasterEmail).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	if u.Role == RoleMaster && u.IsApproved {
		return &u, nil
	}

	u.Role = RoleMaster
	u.IsApproved = true
	if err := s.DB.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Identity snapshots the user's claims for session issuance.
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Approved: u.IsApproved,
	}
}
