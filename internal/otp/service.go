package otp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/auth"
	"github.com/authkit/authkit/internal/core/events"
	otpDatamodel "github.com/authkit/authkit/internal/core/datamodel/otp"
)

// Repository is what the OTP service needs from storage.
type Repository interface {
	GetSecret(ctx context.Context, userID string) (*otpDatamodel.Secret, error)
	SaveSecret(ctx context.Context, secret *otpDatamodel.Secret) error
	ActivateSecret(ctx context.Context, userID string, at time.Time) error
	DeleteSecret(ctx context.Context, userID string) error

	CreateChallenge(ctx context.Context, challenge *otpDatamodel.Challenge) error
	GetChallenge(ctx context.Context, challengeID string) (*otpDatamodel.Challenge, error)
	IncrementAttempts(ctx context.Context, challengeID string) error
	ConsumeChallenge(ctx context.Context, challengeID string) error
	DeleteExpiredChallenges(ctx context.Context, before time.Time) (int64, error)
}

// AccountLookup resolves the email shown in the provisioning URI label.
type AccountLookup interface {
	GetAccountName(ctx context.Context, userID string) (string, error)
}

type Config struct {
	Issuer       string
	Digits       int
	Period       uint
	Skew         uint
	MaxAttempts  int
	ChallengeTTL time.Duration
}

type Service struct {
	repo     Repository
	accounts AccountLookup
	bus      *events.EventBus
	cfg      Config
	now      func() time.Time
}

func NewService(repo Repository, accounts AccountLookup, bus *events.EventBus, cfg Config) *Service {
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	return &Service{
		repo:     repo,
		accounts: accounts,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Enrollment is returned from Enroll: the shared secret plus the
// provisioning URI for the authenticator app.
type Enrollment struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// Enroll creates a pending secret for the user. The enrollment only counts
// for login after Activate sees a valid code. Re-enrolling over a pending
// secret replaces it; an activated secret must be disabled first.
func (s *Service) Enroll(ctx context.Context, userID string) (*Enrollment, error) {
	existing, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load otp enrollment", err)
	}
	if existing != nil && existing.Activated {
		return nil, internal.ErrOTPAlreadyEnrolled
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, internal.NewInternalError("failed to generate otp secret", err)
	}

	if err := s.repo.SaveSecret(ctx, &otpDatamodel.Secret{
		UserID:    userID,
		Secret:    secret,
		Activated: false,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, internal.NewInternalError("failed to store otp secret", err)
	}

	accountName := userID
	if s.accounts != nil {
		if name, err := s.accounts.GetAccountName(ctx, userID); err == nil {
			accountName = name
		}
	}

	return &Enrollment{
		Secret:          secret,
		ProvisioningURI: ProvisioningURI(s.cfg.Issuer, accountName, secret, s.cfg.Digits, s.cfg.Period),
	}, nil
}

// Activate flips a pending enrollment to active once the user proves they
// hold the secret by submitting a valid code.
func (s *Service) Activate(ctx context.Context, userID, code string) error {
	secret, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load otp enrollment", err)
	}
	if secret == nil {
		return internal.ErrOTPNotEnrolled
	}
	if secret.Activated {
		return internal.ErrOTPAlreadyEnrolled
	}

	ok, err := ValidateCode(code, secret.Secret, s.now(), s.cfg.Period, s.cfg.Skew, s.cfg.Digits)
	if err != nil {
		return internal.NewInternalError("failed to validate otp code", err)
	}
	if !ok {
		return internal.ErrOTPInvalidCode
	}

	if err := s.repo.ActivateSecret(ctx, userID, s.now()); err != nil {
		return internal.NewInternalError("failed to activate otp enrollment", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewOTPActivatedEvent(userID))
	}
	return nil
}

// Disable removes the user's enrollment. A valid current code is required so
// a stolen session alone cannot switch the second factor off.
func (s *Service) Disable(ctx context.Context, userID, code string) error {
	secret, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to load otp enrollment", err)
	}
	if secret == nil {
		return internal.ErrOTPNotEnrolled
	}

	ok, err := ValidateCode(code, secret.Secret, s.now(), s.cfg.Period, s.cfg.Skew, s.cfg.Digits)
	if err != nil {
		return internal.NewInternalError("failed to validate otp code", err)
	}
	if !ok {
		return internal.ErrOTPInvalidCode
	}

	if err := s.repo.DeleteSecret(ctx, userID); err != nil {
		return internal.NewInternalError("failed to remove otp enrollment", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewOTPDisabledEvent(userID))
	}
	return nil
}

// Required reports whether login must demand a second factor for the user.
// Implements auth.SecondFactor.
func (s *Service) Required(ctx context.Context, userID string) (bool, error) {
	secret, err := s.repo.GetSecret(ctx, userID)
	if err != nil {
		return false, err
	}
	return secret != nil && secret.Activated, nil
}

// CreateChallenge opens a pending second-factor login for the user.
// Implements auth.SecondFactor.
func (s *Service) CreateChallenge(ctx context.Context, userID string) (string, error) {
	challenge := &otpDatamodel.Challenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.cfg.ChallengeTTL),
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateChallenge(ctx, challenge); err != nil {
		return "", err
	}
	return challenge.ID, nil
}

// VerifyChallenge checks the submitted code against the challenge owner's
// secret. Failed attempts are counted; too many locks the challenge out.
// Implements auth.SecondFactor.
func (s *Service) VerifyChallenge(ctx context.Context, challengeID, code string) error {
	challenge, err := s.repo.GetChallenge(ctx, challengeID)
	if err != nil {
		return internal.NewInternalError("failed to load otp challenge", err)
	}
	if challenge == nil || challenge.Consumed {
		return auth.ErrMFAFailed
	}
	if s.now().After(challenge.ExpiresAt) {
		return auth.ErrMFAFailed
	}
	if challenge.Attempts >= s.cfg.MaxAttempts {
		return internal.ErrOTPTooManyAttempts
	}

	secret, err := s.repo.GetSecret(ctx, challenge.UserID)
	if err != nil {
		return internal.NewInternalError("failed to load otp enrollment", err)
	}
	if secret == nil || !secret.Activated {
		return auth.ErrMFAFailed
	}

	ok, err := ValidateCode(code, secret.Secret, s.now(), s.cfg.Period, s.cfg.Skew, s.cfg.Digits)
	if err != nil {
		return internal.NewInternalError("failed to validate otp code", err)
	}
	if !ok {
		if err := s.repo.IncrementAttempts(ctx, challengeID); err != nil {
			return internal.NewInternalError("failed to record otp attempt", err)
		}
		return auth.ErrMFAFailed
	}

	if err := s.repo.ConsumeChallenge(ctx, challengeID); err != nil {
		return internal.NewInternalError("failed to consume otp challenge", err)
	}
	return nil
}

// SweepExpiredChallenges deletes challenges past their expiry. Called by the
// background worker.
func (s *Service) SweepExpiredChallenges(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredChallenges(ctx, s.now())
}
