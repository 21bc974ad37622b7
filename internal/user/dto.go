package user

import (
	"time"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/core/common/validation"
)

const birthDateLayout = "2006-01-02"

type RegisterDTO struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	PhoneNumber     string `json:"phone_number"`
	BirthDate       string `json:"birth_date"`
	Image           string `json:"image"`
}

func (d *RegisterDTO) Validate() (*time.Time, *internal.AppError) {
	if err := validation.ValidateUsername(d.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(d.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(d.Password); err != nil {
		return nil, err
	}
	if d.Password != d.ConfirmPassword {
		return nil, internal.ErrPasswordConfirmation
	}
	if err := validation.ValidateName("first_name", d.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("last_name", d.LastName); err != nil {
		return nil, err
	}
	if d.PhoneNumber != "" {
		if err := validation.ValidatePhoneNumber(d.PhoneNumber); err != nil {
			return nil, err
		}
	}

	birthDate, err := parseBirthDate(d.BirthDate)
	if err != nil {
		return nil, err
	}
	return birthDate, nil
}

type UpdateDTO struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	BirthDate   string `json:"birth_date"`
	Image       string `json:"image"`
}

func (d *UpdateDTO) Validate() (*time.Time, *internal.AppError) {
	if err := validation.ValidateEmail(d.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("first_name", d.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("last_name", d.LastName); err != nil {
		return nil, err
	}
	if d.PhoneNumber != "" {
		if err := validation.ValidatePhoneNumber(d.PhoneNumber); err != nil {
			return nil, err
		}
	}
	return parseBirthDate(d.BirthDate)
}

// PatchDTO carries partial updates. Nil fields are left untouched.
type PatchDTO struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	BirthDate   *string `json:"birth_date"`
	Image       *string `json:"image"`
}

func (d *PatchDTO) Validate() (*time.Time, *internal.AppError) {
	if d.Email != nil {
		if err := validation.ValidateEmail(*d.Email); err != nil {
			return nil, err
		}
	}
	if d.FirstName != nil {
		if err := validation.ValidateName("first_name", *d.FirstName); err != nil {
			return nil, err
		}
	}
	if d.LastName != nil {
		if err := validation.ValidateName("last_name", *d.LastName); err != nil {
			return nil, err
		}
	}
	if d.PhoneNumber != nil && *d.PhoneNumber != "" {
		if err := validation.ValidatePhoneNumber(*d.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if d.BirthDate != nil {
		return parseBirthDate(*d.BirthDate)
	}
	return nil, nil
}

type ChangePasswordDTO struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (d *ChangePasswordDTO) Validate() *internal.AppError {
	if d.OldPassword == "" {
		return internal.NewValidationFieldError("old_password", "old password is required", internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidatePassword(d.NewPassword); err != nil {
		return err
	}
	if d.NewPassword != d.ConfirmPassword {
		return internal.ErrPasswordConfirmation
	}
	if d.NewPassword == d.OldPassword {
		return internal.ErrPasswordMatch
	}
	return nil
}

func parseBirthDate(raw string) (*time.Time, *internal.AppError) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return nil, internal.NewValidationFieldError("birth_date", "birth date must use the YYYY-MM-DD format", internal.ErrCodeInvalidBirthDate)
	}
	if appErr := validation.ValidateBirthDate(&parsed); appErr != nil {
		return nil, appErr
	}
	return &parsed, nil
}
