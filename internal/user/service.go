package user

import (
	"context"
	"time"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/core/events"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Repository is what the user service needs from storage. Lookups
// return (nil, nil) when no row matches.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo       Repository
	bus        *events.EventBus
	bcryptCost int
	now        func() time.Time
}

func NewService(repo Repository, bus *events.EventBus, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bus:        bus,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	birthDate, appErr := dto.Validate()
	if appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up username", err)
	}
	if existing != nil {
		return nil, internal.ErrUsernameTaken
	}

	existing, err = s.repo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up email", err)
	}
	if existing != nil {
		return nil, internal.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := s.now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PhoneNumber:  dto.PhoneNumber,
		BirthDate:    birthDate,
		Image:        dto.Image,
		IsActive:     true,
		Created:      now,
		Modified:     now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to create user", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewUserRegisteredEvent(u.ID, u.Username, u.Email))
	}

	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateDTO) (*User, error) {
	birthDate, appErr := dto.Validate()
	if appErr != nil {
		return nil, appErr
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Email != u.Email {
		existing, err := s.repo.GetByEmail(ctx, dto.Email)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up email", err)
		}
		if existing != nil && existing.ID != u.ID {
			return nil, internal.ErrEmailTaken
		}
	}

	u.Email = dto.Email
	u.FirstName = dto.FirstName
	u.LastName = dto.LastName
	u.PhoneNumber = dto.PhoneNumber
	u.BirthDate = birthDate
	u.Image = dto.Image
	u.Modified = s.now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return u, nil
}

func (s *Service) Patch(ctx context.Context, id string, dto PatchDTO) (*User, error) {
	birthDate, appErr := dto.Validate()
	if appErr != nil {
		return nil, appErr
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil && *dto.Email != u.Email {
		existing, err := s.repo.GetByEmail(ctx, *dto.Email)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up email", err)
		}
		if existing != nil && existing.ID != u.ID {
			return nil, internal.ErrEmailTaken
		}
		u.Email = *dto.Email
	}
	if dto.FirstName != nil {
		u.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		u.LastName = *dto.LastName
	}
	if dto.PhoneNumber != nil {
		u.PhoneNumber = *dto.PhoneNumber
	}
	if dto.BirthDate != nil {
		u.BirthDate = birthDate
	}
	if dto.Image != nil {
		u.Image = *dto.Image
	}
	u.Modified = s.now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id string, dto ChangePasswordDTO) error {
	if appErr := dto.Validate(); appErr != nil {
		return appErr
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.OldPassword)); err != nil {
		return internal.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return internal.NewInternalError("failed to update password", err)
	}
	return nil
}
