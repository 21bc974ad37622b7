package auth

import (
	"context"

	"github.com/authkit/authkit/internal/core/events"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is what the auth service needs from storage.
type UserRepository interface {
	GetCredentials(ctx context.Context, username string) (passwordHash string, userID string, active bool, err error)
	GetUserWithAccess(ctx context.Context, userID string) (*User, error)
	TouchLastLogin(ctx context.Context, userID string) error
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo     UserRepository
	tokenGen     TokenGenerator
	secondFactor SecondFactor
	bus          *events.EventBus
	bcryptCost   int
}

// NewService creates a new auth service. secondFactor and bus may be nil.
func NewService(userRepo UserRepository, tokenGen TokenGenerator, secondFactor SecondFactor, bus *events.EventBus, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:     userRepo,
		tokenGen:     tokenGen,
		secondFactor: secondFactor,
		bus:          bus,
		bcryptCost:   bcryptCost,
	}
}

// Authenticate validates credentials. When the user has an active one-time
// password enrollment the result carries an MFA token instead of the token
// pair; CompleteMFA finishes the login.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return LoginResult{}, err
	}

	storedHash, userID, active, err := s.userRepo.GetCredentials(ctx, dto.Username)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !active {
		return LoginResult{}, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.secondFactor != nil {
		required, err := s.secondFactor.Required(ctx, userID)
		if err != nil {
			return LoginResult{}, err
		}
		if required {
			challengeID, err := s.secondFactor.CreateChallenge(ctx, userID)
			if err != nil {
				return LoginResult{}, err
			}
			mfaToken, err := s.tokenGen.GenerateMFAToken(userID, dto.Username, challengeID)
			if err != nil {
				return LoginResult{}, err
			}
			return LoginResult{MFARequired: true, MFAToken: mfaToken}, nil
		}
	}

	tokens, err := s.issueTokens(ctx, userID, dto.Username, false)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Tokens: tokens}, nil
}

// CompleteMFA exchanges a valid MFA token plus one-time password for the
// real token pair.
func (s *Service) CompleteMFA(ctx context.Context, dto VerifyMFADTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokenGen.ValidateToken(dto.MFAToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if claims.Scope != ScopeMFA || claims.ChallengeID == "" {
		return AuthTokens{}, ErrInvalidToken
	}

	if s.secondFactor == nil {
		return AuthTokens{}, ErrInvalidToken
	}

	if err := s.secondFactor.VerifyChallenge(ctx, claims.ChallengeID, dto.Code); err != nil {
		return AuthTokens{}, err
	}

	return s.issueTokens(ctx, claims.UserID, claims.Username, true)
}

// RefreshTokens validates a refresh token and returns a fresh pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGen.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if claims.Scope != ScopeRefresh {
		return AuthTokens{}, ErrInvalidToken
	}

	// An account deactivated after login must not keep refreshing its way in
	_, _, active, err := s.userRepo.GetCredentials(ctx, claims.Username)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !active {
		return AuthTokens{}, ErrUserInactive
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(claims.UserID, claims.Username)
	if err != nil {
		return AuthTokens{}, err
	}

	newRefreshToken, err := s.tokenGen.GenerateRefreshToken(claims.UserID, claims.Username)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokenGen.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != ScopeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetUserWithAccess loads the user plus roles and effective permissions.
func (s *Service) GetUserWithAccess(ctx context.Context, userID string) (*User, error) {
	return s.userRepo.GetUserWithAccess(ctx, userID)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issueTokens(ctx context.Context, userID, username string, mfaUpgrade bool) (AuthTokens, error) {
	accessToken, err := s.tokenGen.GenerateAccessToken(userID, username)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGen.GenerateRefreshToken(userID, username)
	if err != nil {
		return AuthTokens{}, err
	}

	// last_login is best effort; a failed touch must not fail the login
	_ = s.userRepo.TouchLastLogin(ctx, userID)

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewUserLoggedInEvent(userID, username, mfaUpgrade))
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
