package otp

import (
	"context"
	"time"

	"github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/auth"
	otpDatamodel "github.com/authkit/authkit/internal/core/datamodel/otp"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// in-memory Repository for testing
type mockRepository struct {
	secrets    map[string]*otpDatamodel.Secret
	challenges map[string]*otpDatamodel.Challenge
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		secrets:    make(map[string]*otpDatamodel.Secret),
		challenges: make(map[string]*otpDatamodel.Challenge),
	}
}

func (m *mockRepository) GetSecret(_ context.Context, userID string) (*otpDatamodel.Secret, error) {
	if s, ok := m.secrets[userID]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepository) SaveSecret(_ context.Context, secret *otpDatamodel.Secret) error {
	copied := *secret
	m.secrets[secret.UserID] = &copied
	return nil
}

func (m *mockRepository) ActivateSecret(_ context.Context, userID string, at time.Time) error {
	if s, ok := m.secrets[userID]; ok {
		s.Activated = true
		s.ActivatedAt = &at
	}
	return nil
}

func (m *mockRepository) DeleteSecret(_ context.Context, userID string) error {
	delete(m.secrets, userID)
	return nil
}

func (m *mockRepository) CreateChallenge(_ context.Context, challenge *otpDatamodel.Challenge) error {
	copied := *challenge
	m.challenges[challenge.ID] = &copied
	return nil
}

func (m *mockRepository) GetChallenge(_ context.Context, challengeID string) (*otpDatamodel.Challenge, error) {
	if c, ok := m.challenges[challengeID]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepository) IncrementAttempts(_ context.Context, challengeID string) error {
	if c, ok := m.challenges[challengeID]; ok {
		c.Attempts++
	}
	return nil
}

func (m *mockRepository) ConsumeChallenge(_ context.Context, challengeID string) error {
	if c, ok := m.challenges[challengeID]; ok {
		c.Consumed = true
	}
	return nil
}

func (m *mockRepository) DeleteExpiredChallenges(_ context.Context, before time.Time) (int64, error) {
	var removed int64
	for id, c := range m.challenges {
		if c.Consumed || before.After(c.ExpiresAt) {
			delete(m.challenges, id)
			removed++
		}
	}
	return removed, nil
}

type mockAccountLookup struct{}

func (mockAccountLookup) GetAccountName(_ context.Context, userID string) (string, error) {
	return userID + "@example.com", nil
}

var _ = ginkgo.Describe("OTPService", func() {
	var (
		repo    *mockRepository
		service *Service
		ctx     context.Context
		nowTime time.Time
	)

	const userID = "8f7d2c3a-1b4e-4d5f-9a6b-7c8d9e0f1a2b"

	currentCode := func(secret string) string {
		code, err := TOTP(secret, nowTime, 30, 6)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return code
	}

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		service = NewService(repo, mockAccountLookup{}, nil, Config{
			Issuer:       "authkit",
			Digits:       6,
			Period:       30,
			Skew:         1,
			MaxAttempts:  3,
			ChallengeTTL: 5 * time.Minute,
		})
		ctx = context.Background()
		nowTime = time.Unix(1700000000, 0).UTC()
		service.now = func() time.Time { return nowTime }
	})

	ginkgo.Describe("Enroll", func() {
		ginkgo.It("should create a pending secret with a provisioning URI", func() {
			enrollment, err := service.Enroll(ctx, userID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(enrollment.Secret).ToNot(gomega.BeEmpty())
			gomega.Expect(enrollment.ProvisioningURI).To(gomega.ContainSubstring("otpauth://totp/"))
			gomega.Expect(repo.secrets[userID].Activated).To(gomega.BeFalse())
		})

		ginkgo.It("should replace a pending secret on re-enroll", func() {
			first, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			second, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.Secret).ToNot(gomega.Equal(first.Secret))
		})

		ginkgo.It("should refuse when an activated enrollment exists", func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = service.Activate(ctx, userID, currentCode(enrollment.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Enroll(ctx, userID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrOTPAlreadyEnrolled))
		})
	})

	ginkgo.Describe("Activate", func() {
		ginkgo.It("should activate with a valid code", func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = service.Activate(ctx, userID, currentCode(enrollment.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.secrets[userID].Activated).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an invalid code", func() {
			_, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			err = service.Activate(ctx, userID, "000000")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrOTPInvalidCode))
		})

		ginkgo.It("should fail when the user never enrolled", func() {
			err := service.Activate(ctx, userID, "123456")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrOTPNotEnrolled))
		})
	})

	ginkgo.Describe("Disable", func() {
		ginkgo.It("should remove the enrollment with a valid code", func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Activate(ctx, userID, currentCode(enrollment.Secret))).To(gomega.Succeed())

			err = service.Disable(ctx, userID, currentCode(enrollment.Secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			required, err := service.Required(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(required).To(gomega.BeFalse())
		})

		ginkgo.It("should keep the enrollment when the code is wrong", func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Activate(ctx, userID, currentCode(enrollment.Secret))).To(gomega.Succeed())

			err = service.Disable(ctx, userID, "000000")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrOTPInvalidCode))
			gomega.Expect(repo.secrets).To(gomega.HaveKey(userID))
		})
	})

	ginkgo.Describe("Required", func() {
		ginkgo.It("should be false without an enrollment", func() {
			required, err := service.Required(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(required).To(gomega.BeFalse())
		})

		ginkgo.It("should be false while the enrollment is pending", func() {
			_, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			required, err := service.Required(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(required).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("VerifyChallenge", func() {
		var secret string
		var challengeID string

		ginkgo.BeforeEach(func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			secret = enrollment.Secret
			gomega.Expect(service.Activate(ctx, userID, currentCode(secret))).To(gomega.Succeed())

			challengeID, err = service.CreateChallenge(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("should consume the challenge on a valid code", func() {
			err := service.VerifyChallenge(ctx, challengeID, currentCode(secret))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.challenges[challengeID].Consumed).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a consumed challenge", func() {
			gomega.Expect(service.VerifyChallenge(ctx, challengeID, currentCode(secret))).To(gomega.Succeed())

			err := service.VerifyChallenge(ctx, challengeID, currentCode(secret))
			gomega.Expect(err).To(gomega.MatchError(auth.ErrMFAFailed))
		})

		ginkgo.It("should reject an unknown challenge", func() {
			err := service.VerifyChallenge(ctx, "no-such-challenge", currentCode(secret))
			gomega.Expect(err).To(gomega.MatchError(auth.ErrMFAFailed))
		})

		ginkgo.It("should reject an expired challenge", func() {
			nowTime = nowTime.Add(10 * time.Minute)

			err := service.VerifyChallenge(ctx, challengeID, currentCode(secret))
			gomega.Expect(err).To(gomega.MatchError(auth.ErrMFAFailed))
		})

		ginkgo.It("should count failed attempts and lock out", func() {
			for i := 0; i < 3; i++ {
				err := service.VerifyChallenge(ctx, challengeID, "000000")
				gomega.Expect(err).To(gomega.MatchError(auth.ErrMFAFailed))
			}

			// even the right code is refused once the attempt budget is spent
			err := service.VerifyChallenge(ctx, challengeID, currentCode(secret))
			gomega.Expect(err).To(gomega.MatchError(internal.ErrOTPTooManyAttempts))
		})
	})

	ginkgo.Describe("SweepExpiredChallenges", func() {
		ginkgo.It("should delete expired and consumed challenges only", func() {
			enrollment, err := service.Enroll(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.Activate(ctx, userID, currentCode(enrollment.Secret))).To(gomega.Succeed())

			expired, err := service.CreateChallenge(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			repo.challenges[expired].ExpiresAt = nowTime.Add(-time.Minute)

			live, err := service.CreateChallenge(ctx, userID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			removed, err := service.SweepExpiredChallenges(ctx)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(removed).To(gomega.Equal(int64(1)))
			gomega.Expect(repo.challenges).To(gomega.HaveKey(live))
			gomega.Expect(repo.challenges).ToNot(gomega.HaveKey(expired))
		})
	})
})
