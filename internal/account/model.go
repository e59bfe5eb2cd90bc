package account

import "time"

// Account is an operating credential for an external platform. The password
// column holds the sealed form; the service opens it before returning
// records to authorized callers.
type Account struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	Platform    string     `gorm:"index;not null" json:"platform"`
	AccountName string     `gorm:"not null" json:"accountName"`
	Username    string     `gorm:"not null" json:"username"`
	Password    string     `gorm:"not null" json:"password"`
	Note        string     `gorm:"type:text;not null;default:''" json:"note"`
	LastUsedAt  *time.Time `gorm:"index" json:"lastUsedAt,omitempty"`
	CreatedBy   uint64     `gorm:"not null" json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Account) TableName() string { return "work_operating_accounts" }
