package domain

import "time"

// Account is the credential record. Username is the primary key and never
// changes after registration.
type Account struct {
	Username          string     `gorm:"primaryKey" json:"username"`
	Email             string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	Role              string     `gorm:"not null;default:joueur" json:"role"`
	RefreshTokenHash  *string    `json:"-"`
	ResetToken        *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	UsedInviteCode    string     `json:"used_invite_code"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "account" }

// HasActiveSession reports whether a refresh-token hash is stored.
func (a *Account) HasActiveSession() bool { return a.RefreshTokenHash != nil }

// Invite is a single-use registration code. Redemption deletes the row.
type Invite struct {
	Code      string    `gorm:"primaryKey" json:"code"`
	Email     string    `json:"email,omitempty"`
	Role      string    `gorm:"not null;default:joueur" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Invite) TableName() string { return "invite" }
