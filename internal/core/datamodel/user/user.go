package user

import "time"

// User is the persistence record for the users table. It carries both gorm
// and sqlx tags so the seeder's gorm session and the sqlx repository can share
// one definition.
type User struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey" db:"id"`
	Username     string     `gorm:"column:username;uniqueIndex;not null" db:"username"`
	Email        string     `gorm:"column:email;uniqueIndex;not null" db:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" db:"password_hash"`
	FirstName    string     `gorm:"column:first_name;size:100" db:"first_name"`
	LastName     string     `gorm:"column:last_name;size:100" db:"last_name"`
	PhoneNumber  string     `gorm:"column:phone_number" db:"phone_number"`
	BirthDate    *time.Time `gorm:"column:birth_date" db:"birth_date"`
	Image        string     `gorm:"column:image" db:"image"`
	IsActive     bool       `gorm:"column:is_active;default:true" db:"is_active"`
	Created      time.Time  `gorm:"column:created;default:now()" db:"created"`
	Modified     time.Time  `gorm:"column:modified;default:now()" db:"modified"`
	LastLogin    *time.Time `gorm:"column:last_login" db:"last_login"`
}

func (User) TableName() string {
	return "users"
}
