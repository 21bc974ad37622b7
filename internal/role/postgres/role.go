package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/authkit/authkit/internal/core/datamodel/role"
	"github.com/authkit/authkit/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateRole(ctx context.Context, name, description string) (*role.Role, error) {
	record := roleDatamodel.Role{
		Name:        name,
		Description: description,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return toDomainRole(&record, nil), nil
}

func (r *Repository) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	var record roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	permissions, err := r.rolePermissions(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return toDomainRole(&record, permissions), nil
}

func (r *Repository) ListRoles(ctx context.Context) ([]*role.Role, error) {
	var records []roleDatamodel.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, err
	}

	roles := make([]*role.Role, 0, len(records))
	for i := range records {
		permissions, err := r.rolePermissions(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		roles = append(roles, toDomainRole(&records[i], permissions))
	}
	return roles, nil
}

func (r *Repository) CreatePermission(ctx context.Context, name, description string) (*role.Permission, error) {
	record := roleDatamodel.Permission{
		Name:        name,
		Description: description,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return toDomainPermission(&record), nil
}

func (r *Repository) GetPermissionByName(ctx context.Context, name string) (*role.Permission, error) {
	var record roleDatamodel.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainPermission(&record), nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]*role.Permission, error) {
	var records []roleDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("name").Find(&records).Error; err != nil {
		return nil, err
	}

	permissions := make([]*role.Permission, 0, len(records))
	for i := range records {
		permissions = append(permissions, toDomainPermission(&records[i]))
	}
	return permissions, nil
}

func (r *Repository) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&roleDatamodel.RolePermission{
			RoleID:       roleID,
			PermissionID: permissionID,
		}).Error
}

func (r *Repository) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&roleDatamodel.RolePermission{}).
		Error
}

func (r *Repository) AssignRole(ctx context.Context, userID string, roleID int64, grantedBy *string) error {
	return r.db.WithContext(ctx).Create(&roleDatamodel.UserRole{
		UserID:    userID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
	}).Error
}

func (r *Repository) RevokeRole(ctx context.Context, userID string, roleID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&roleDatamodel.UserRole{}).
		Error
}

func (r *Repository) GetUserRoles(ctx context.Context, userID string) ([]*role.Role, error) {
	var records []roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Raw(`SELECT r.id, r.name, r.description, r.created_at
		     FROM roles r
		     JOIN user_roles ur ON ur.role_id = r.id
		     WHERE ur.user_id = ?
		     ORDER BY r.name`, userID).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	roles := make([]*role.Role, 0, len(records))
	for i := range records {
		permissions, err := r.rolePermissions(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		roles = append(roles, toDomainRole(&records[i], permissions))
	}
	return roles, nil
}

func (r *Repository) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	var permissions []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT p.name
		     FROM permissions p
		     JOIN role_permissions rp ON rp.permission_id = p.id
		     JOIN user_roles ur ON ur.role_id = rp.role_id
		     WHERE ur.user_id = ?
		     ORDER BY p.name`, userID).
		Scan(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

func (r *Repository) UserHasRole(ctx context.Context, userID string, roleID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&roleDatamodel.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	var permissions []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT p.name
		     FROM permissions p
		     JOIN role_permissions rp ON rp.permission_id = p.id
		     WHERE rp.role_id = ?
		     ORDER BY p.name`, roleID).
		Scan(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

func toDomainRole(record *roleDatamodel.Role, permissions []string) *role.Role {
	return &role.Role{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		Permissions: permissions,
		CreatedAt:   record.CreatedAt,
	}
}

func toDomainPermission(record *roleDatamodel.Permission) *role.Permission {
	return &role.Permission{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	}
}
