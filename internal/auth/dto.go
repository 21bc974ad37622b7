package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// VerifyMFADTO completes a login that demanded a one-time password.
type VerifyMFADTO struct {
	MFAToken string `json:"mfa_token"`
	Code     string `json:"code"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

func (d VerifyMFADTO) Validate() error {
	if d.MFAToken == "" {
		return ValidationError{Msg: "mfa_token is required"}
	}
	if d.Code == "" {
		return ValidationError{Msg: "code is required"}
	}
	return nil
}
