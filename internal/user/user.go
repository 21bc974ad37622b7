package user

import (
	"time"

	userDatamodel "github.com/authkit/authkit/internal/core/datamodel/user"
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Image        string     `json:"image,omitempty"`
	IsActive     bool       `json:"is_active"`
	Created      time.Time  `json:"created"`
	Modified     time.Time  `json:"modified"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		BirthDate:    u.BirthDate,
		Image:        u.Image,
		IsActive:     u.IsActive,
		Created:      u.Created,
		Modified:     u.Modified,
		LastLogin:    u.LastLogin,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PhoneNumber:  u.PhoneNumber,
		BirthDate:    u.BirthDate,
		Image:        u.Image,
		IsActive:     u.IsActive,
		Created:      u.Created,
		Modified:     u.Modified,
		LastLogin:    u.LastLogin,
	}
}
