package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token scopes carried in JWT claims. The scope picks the signing secret and
// restricts what the token can be used for.
const (
	ScopeAccess  = "access"
	ScopeRefresh = "refresh"
	ScopeMFA     = "mfa"
)

// User is the authenticated principal placed on the request context.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult is what Authenticate hands back: either a finished token pair,
// or a pending MFA challenge when the OTP feature demands a second factor.
type LoginResult struct {
	MFARequired bool       `json:"mfa_required"`
	MFAToken    string     `json:"mfa_token,omitempty"`
	Tokens      AuthTokens `json:"tokens,omitempty"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Scope       string `json:"scope"`
	ChallengeID string `json:"challenge_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID, username string) (string, error)
	GenerateRefreshToken(userID, username string) (string, error)
	GenerateMFAToken(userID, username, challengeID string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// SecondFactor is implemented by the OTP feature. A nil SecondFactor on the
// auth service means logins never demand a second step.
type SecondFactor interface {
	Required(ctx context.Context, userID string) (bool, error)
	CreateChallenge(ctx context.Context, userID string) (challengeID string, err error)
	VerifyChallenge(ctx context.Context, challengeID, code string) error
}

// ServiceAPI is the surface the HTTP handler depends on.
type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (LoginResult, error)
	CompleteMFA(ctx context.Context, dto VerifyMFADTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithAccess(ctx context.Context, userID string) (*User, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrMFARequired        = errors.New("second factor required")
	ErrMFAFailed          = errors.New("second factor verification failed")
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	MFATokenTTL        time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL, mfaTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		MFATokenTTL:        mfaTTL,
	}
}

func (j *JWTTokenGenerator) sign(claims *Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateAccessToken creates a new short-lived access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Scope:    ScopeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	return j.sign(claims, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Scope:    ScopeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	return j.sign(claims, j.RefreshTokenSecret)
}

// GenerateMFAToken creates the intermediate token handed out when a login
// still needs a one-time password. It is only good for the verify endpoint.
func (j *JWTTokenGenerator) GenerateMFAToken(userID, username, challengeID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		Username:    username,
		Scope:       ScopeMFA,
		ChallengeID: challengeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.MFATokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	return j.sign(claims, j.AccessTokenSecret)
}

// ValidateToken validates a JWT token and returns claims. The claimed scope
// picks the verification secret; the signature still has to match it.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		if claims, ok := token.Claims.(*Claims); ok && claims.Scope == ScopeRefresh {
			return j.RefreshTokenSecret, nil
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
