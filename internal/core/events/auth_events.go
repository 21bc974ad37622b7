package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserRegistered = "user.registered"
	EventTypeUserLoggedIn   = "user.logged_in"
	EventTypeOTPActivated   = "otp.activated"
	EventTypeOTPDisabled    = "otp.disabled"
	EventTypeRoleAssigned   = "role.assigned"
	EventTypeRoleRevoked    = "role.revoked"
)

type UserRegisteredEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserRegisteredEvent(userID, username, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
				"email":    email,
			},
		},
		UserID:   userID,
		Username: username,
		Email:    email,
	}
}

type UserLoggedInEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	MFAUpgrade bool   `json:"mfa_upgrade"`
}

func NewUserLoggedInEvent(userID, username string, mfaUpgrade bool) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserLoggedIn,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":     userID,
				"username":    username,
				"mfa_upgrade": mfaUpgrade,
			},
		},
		UserID:     userID,
		Username:   username,
		MFAUpgrade: mfaUpgrade,
	}
}

type OTPActivatedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewOTPActivatedEvent(userID string) *OTPActivatedEvent {
	return &OTPActivatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOTPActivated,
			Timestamp: time.Now(),
			Data:      map[string]interface{}{"user_id": userID},
		},
		UserID: userID,
	}
}

type OTPDisabledEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewOTPDisabledEvent(userID string) *OTPDisabledEvent {
	return &OTPDisabledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOTPDisabled,
			Timestamp: time.Now(),
			Data:      map[string]interface{}{"user_id": userID},
		},
		UserID: userID,
	}
}

type RoleAssignedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	RoleName  string `json:"role_name"`
	GrantedBy string `json:"granted_by,omitempty"`
}

func NewRoleAssignedEvent(userID, roleName, grantedBy string) *RoleAssignedEvent {
	return &RoleAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRoleAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"role_name":  roleName,
				"granted_by": grantedBy,
			},
		},
		UserID:    userID,
		RoleName:  roleName,
		GrantedBy: grantedBy,
	}
}

type RoleRevokedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	RoleName string `json:"role_name"`
}

func NewRoleRevokedEvent(userID, roleName string) *RoleRevokedEvent {
	return &RoleRevokedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRoleRevoked,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":   userID,
				"role_name": roleName,
			},
		},
		UserID:   userID,
		RoleName: roleName,
	}
}
