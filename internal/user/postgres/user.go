package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	userDatamodel "github.com/authkit/authkit/internal/core/datamodel/user"
	"github.com/authkit/authkit/internal/user"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	phone_number, birth_date, image, is_active, created, modified, last_login`

func (r *Repository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
			phone_number, birth_date, image, is_active, created, modified)
		VALUES (:id, :username, :email, :password_hash, :first_name, :last_name,
			:phone_number, :birth_date, :image, :is_active, :created, :modified)`
	if _, err := r.db.NamedExecContext(ctx, query, user.ToDataModel(u)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns), id)
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns), username)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns), email)
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created DESC LIMIT $1 OFFSET $2", userColumns)

	var records []userDatamodel.User
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*user.User, 0, len(records))
	for i := range records {
		users = append(users, user.FromDataModel(&records[i]))
	}
	return users, nil
}

func (r *Repository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = :email, first_name = :first_name, last_name = :last_name,
			phone_number = :phone_number, birth_date = :birth_date, image = :image,
			is_active = :is_active, modified = :modified
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user.ToDataModel(u)); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := "UPDATE users SET password_hash = $1, modified = now() WHERE id = $2"
	if _, err := r.db.ExecContext(ctx, query, passwordHash, id); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var record userDatamodel.User
	if err := r.db.GetContext(ctx, &record, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.FromDataModel(&record), nil
}
