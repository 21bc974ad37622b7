package role

import (
	"context"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/core/events"
)

// Repository is what the role service needs from storage.
type Repository interface {
	CreateRole(ctx context.Context, name, description string) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)

	CreatePermission(ctx context.Context, name, description string) (*Permission, error)
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)

	GrantPermission(ctx context.Context, roleID, permissionID int64) error
	RevokePermission(ctx context.Context, roleID, permissionID int64) error

	AssignRole(ctx context.Context, userID string, roleID int64, grantedBy *string) error
	RevokeRole(ctx context.Context, userID string, roleID int64) error
	GetUserRoles(ctx context.Context, userID string) ([]*Role, error)
	GetUserPermissions(ctx context.Context, userID string) ([]string, error)
	UserHasRole(ctx context.Context, userID string, roleID int64) (bool, error)
}

type Service struct {
	repo    Repository
	checker PermissionChecker
	bus     *events.EventBus
}

func NewService(repo Repository, bus *events.EventBus) *Service {
	return &Service{
		repo:    repo,
		checker: NewPermissionChecker(),
		bus:     bus,
	}
}

func (s *Service) Checker() PermissionChecker {
	return s.checker
}

func (s *Service) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	if name == "" {
		return nil, internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}

	existing, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if existing != nil {
		return nil, internal.ErrRoleExists
	}

	created, err := s.repo.CreateRole(ctx, name, description)
	if err != nil {
		return nil, internal.NewInternalError("failed to create role", err)
	}
	return created, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) GetRole(ctx context.Context, name string) (*Role, error) {
	r, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up role", err)
	}
	if r == nil {
		return nil, internal.ErrRoleNotFound
	}
	return r, nil
}

func (s *Service) CreatePermission(ctx context.Context, name, description string) (*Permission, error) {
	if name == "" {
		return nil, internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}

	existing, err := s.repo.GetPermissionByName(ctx, name)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up permission", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.repo.CreatePermission(ctx, name, description)
	if err != nil {
		return nil, internal.NewInternalError("failed to create permission", err)
	}
	return created, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list permissions", err)
	}
	return perms, nil
}

// GrantPermission attaches a permission to a role, creating the permission
// if it does not exist yet.
func (s *Service) GrantPermission(ctx context.Context, roleName, permissionName string) error {
	r, err := s.GetRole(ctx, roleName)
	if err != nil {
		return err
	}

	p, err := s.CreatePermission(ctx, permissionName, "")
	if err != nil {
		return err
	}

	if err := s.repo.GrantPermission(ctx, r.ID, p.ID); err != nil {
		return internal.NewInternalError("failed to grant permission", err)
	}
	return nil
}

func (s *Service) RevokePermission(ctx context.Context, roleName, permissionName string) error {
	r, err := s.GetRole(ctx, roleName)
	if err != nil {
		return err
	}

	p, err := s.repo.GetPermissionByName(ctx, permissionName)
	if err != nil {
		return internal.NewInternalError("failed to look up permission", err)
	}
	if p == nil {
		return internal.ErrPermissionNotFound
	}

	if err := s.repo.RevokePermission(ctx, r.ID, p.ID); err != nil {
		return internal.NewInternalError("failed to revoke permission", err)
	}
	return nil
}

func (s *Service) AssignRole(ctx context.Context, userID, roleName string, grantedBy *string) error {
	r, err := s.GetRole(ctx, roleName)
	if err != nil {
		return err
	}

	has, err := s.repo.UserHasRole(ctx, userID, r.ID)
	if err != nil {
		return internal.NewInternalError("failed to check user role", err)
	}
	if has {
		return internal.ErrRoleAlreadyAssigned
	}

	if err := s.repo.AssignRole(ctx, userID, r.ID, grantedBy); err != nil {
		return internal.NewInternalError("failed to assign role", err)
	}

	if s.bus != nil {
		by := ""
		if grantedBy != nil {
			by = *grantedBy
		}
		_ = s.bus.Publish(ctx, events.NewRoleAssignedEvent(userID, roleName, by))
	}
	return nil
}

func (s *Service) RevokeRole(ctx context.Context, userID, roleName string) error {
	r, err := s.GetRole(ctx, roleName)
	if err != nil {
		return err
	}

	if err := s.repo.RevokeRole(ctx, userID, r.ID); err != nil {
		return internal.NewInternalError("failed to revoke role", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewRoleRevokedEvent(userID, roleName))
	}
	return nil
}

func (s *Service) GetUserRoles(ctx context.Context, userID string) ([]*Role, error) {
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list user roles", err)
	}
	return roles, nil
}

// GetUserPermissions resolves the user's effective permission set through
// their roles.
func (s *Service) GetUserPermissions(ctx context.Context, userID string) ([]string, error) {
	perms, err := s.repo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to resolve user permissions", err)
	}
	return perms, nil
}
