package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/authkit/authkit/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, username string) (string, string, bool, error) {
	var (
		userID       string
		passwordHash string
		active       bool
	)
	query := `SELECT id, password_hash, is_active FROM users WHERE username = ?`

	row := r.db.WithContext(ctx).Raw(query, username).Row()
	if err := row.Scan(&userID, &passwordHash, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, fmt.Errorf("user not found")
		}
		return "", "", false, err
	}
	return passwordHash, userID, active, nil
}

func (r *Repository) GetUserWithAccess(ctx context.Context, userID string) (*auth.User, error) {
	var user auth.User

	query := `SELECT id, username, email FROM users WHERE id = ? AND is_active = true`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Username, &user.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	roleQuery := `SELECT r.name
	             FROM roles r
	             JOIN user_roles ur ON r.id = ur.role_id
	             WHERE ur.user_id = ?`

	rows, err := r.db.WithContext(ctx).Raw(roleQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	user.Roles = roles

	permQuery := `SELECT DISTINCT p.name
	             FROM permissions p
	             JOIN role_permissions rp ON p.id = rp.permission_id
	             JOIN user_roles ur ON rp.role_id = ur.role_id
	             WHERE ur.user_id = ?`

	permRows, err := r.db.WithContext(ctx).Raw(permQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer permRows.Close()

	var permissions []string
	for permRows.Next() {
		var name string
		if err := permRows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	user.Permissions = permissions

	return &user, nil
}

func (r *Repository) TouchLastLogin(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Exec(`UPDATE users SET last_login = ?, modified = ? WHERE id = ?`, time.Now(), time.Now(), userID).
		Error
}

// GetAccountName returns the email used to label provisioning URIs.
func (r *Repository) GetAccountName(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.db.WithContext(ctx).
		Raw(`SELECT email FROM users WHERE id = ?`, userID).
		Scan(&email).Error
	if err != nil {
		return "", err
	}
	return email, nil
}
