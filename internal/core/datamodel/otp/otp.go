package otp

import "time"

// Secret holds a user's TOTP enrollment. A secret starts pending and only
// counts for login once activated with a valid code.
type Secret struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      string     `gorm:"column:user_id;type:uuid;uniqueIndex;not null"`
	Secret      string     `gorm:"column:secret;not null"`
	Activated   bool       `gorm:"column:activated;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:now()"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
}

func (Secret) TableName() string {
	return "otp_secrets"
}

// Challenge tracks a pending second-factor login. Attempts are counted so a
// challenge can be locked out after repeated failures.
type Challenge struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null"`
	Attempts  int       `gorm:"column:attempts;default:0"`
	Consumed  bool      `gorm:"column:consumed;default:false"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Challenge) TableName() string {
	return "otp_challenges"
}
