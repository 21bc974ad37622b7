package role

import "time"

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
}

func (Permission) TableName() string {
	return "permissions"
}

type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permission"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_role"`
	RoleID    int64     `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
	GrantedBy *string   `gorm:"column:granted_by;type:uuid"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
