package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidUsername  ErrorCode = "INVALID_USERNAME"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPhone     ErrorCode = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidBirthDate ErrorCode = "INVALID_BIRTH_DATE"

	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeUsernameTaken        ErrorCode = "USERNAME_ALREADY_EXISTS"
	ErrCodeEmailTaken           ErrorCode = "EMAIL_ALREADY_EXISTS"
	ErrCodePasswordMatch        ErrorCode = "PASSWORD_SAME_AS_OLD"
	ErrCodePasswordConfirmation ErrorCode = "PASSWORD_CONFIRMATION_MISMATCH"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeOTPInvalidCode     ErrorCode = "OTP_INVALID_CODE"
	ErrCodeOTPNotEnrolled     ErrorCode = "OTP_NOT_ENROLLED"
	ErrCodeOTPAlreadyEnrolled ErrorCode = "OTP_ALREADY_ENROLLED"
	ErrCodeOTPChallengeFailed ErrorCode = "OTP_CHALLENGE_FAILED"
	ErrCodeOTPTooManyAttempts ErrorCode = "OTP_TOO_MANY_ATTEMPTS"
	ErrCodeFeatureDisabled    ErrorCode = "FEATURE_DISABLED"

	ErrCodeRoleNotFound        ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeRoleExists          ErrorCode = "ROLE_ALREADY_EXISTS"
	ErrCodeRoleAlreadyAssigned ErrorCode = "ROLE_ALREADY_ASSIGNED"
	ErrCodePermissionNotFound  ErrorCode = "PERMISSION_NOT_FOUND"
	ErrCodeInsufficientAccess  ErrorCode = "INSUFFICIENT_PERMISSIONS"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrUsernameTaken        = NewConflictError("Username is already taken", ErrCodeUsernameTaken)
	ErrEmailTaken           = NewConflictError("Email is already registered", ErrCodeEmailTaken)
	ErrPasswordMatch        = NewValidationError("New password must differ from the old password", ErrCodePasswordMatch)
	ErrPasswordConfirmation = NewValidationError("Password confirmation does not match", ErrCodePasswordConfirmation)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrOTPInvalidCode     = NewUnauthorizedError("Invalid one-time password", ErrCodeOTPInvalidCode)
	ErrOTPNotEnrolled     = NewNotFoundError("User has no one-time password enrollment", ErrCodeOTPNotEnrolled)
	ErrOTPAlreadyEnrolled = NewConflictError("User already has an active one-time password enrollment", ErrCodeOTPAlreadyEnrolled)
	ErrOTPTooManyAttempts = NewForbiddenError("Too many failed one-time password attempts", ErrCodeOTPTooManyAttempts)
	ErrFeatureDisabled    = NewNotFoundError("Feature is not enabled", ErrCodeFeatureDisabled)

	ErrRoleNotFound        = NewNotFoundError("Role not found", ErrCodeRoleNotFound)
	ErrRoleExists          = NewConflictError("Role already exists", ErrCodeRoleExists)
	ErrRoleAlreadyAssigned = NewConflictError("Role is already assigned to user", ErrCodeRoleAlreadyAssigned)
	ErrPermissionNotFound  = NewNotFoundError("Permission not found", ErrCodePermissionNotFound)
	ErrInsufficientAccess  = NewForbiddenError("Insufficient permissions", ErrCodeInsufficientAccess)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
