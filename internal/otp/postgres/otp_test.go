package postgres_test

import (
	"context"
	"testing"
	"time"

	otpDatamodel "github.com/authkit/authkit/internal/core/datamodel/otp"
	otpPostgres "github.com/authkit/authkit/internal/otp/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestOTPPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OTP Postgres Suite")
}

// SQLite-compatible models for testing
type SQLiteSecret struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      string     `gorm:"column:user_id;uniqueIndex;not null"`
	Secret      string     `gorm:"column:secret;not null"`
	Activated   bool       `gorm:"column:activated;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
}

func (SQLiteSecret) TableName() string {
	return "otp_secrets"
}

type SQLiteChallenge struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;not null"`
	Attempts  int       `gorm:"column:attempts;default:0"`
	Consumed  bool      `gorm:"column:consumed;default:false"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (SQLiteChallenge) TableName() string {
	return "otp_challenges"
}

var _ = Describe("OTP PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo *otpPostgres.Repository
		ctx  context.Context
	)

	const userID = "9c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f"

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteSecret{}, &SQLiteChallenge{})
		Expect(err).NotTo(HaveOccurred())

		repo = otpPostgres.NewRepository(db)
		ctx = context.Background()
	})

	Describe("SaveSecret", func() {
		It("should store a pending secret", func() {
			err := repo.SaveSecret(ctx, &otpDatamodel.Secret{
				UserID:    userID,
				Secret:    "GEZDGNBVGY3TQOJQ",
				CreatedAt: time.Now(),
			})
			Expect(err).NotTo(HaveOccurred())

			stored, err := repo.GetSecret(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.Secret).To(Equal("GEZDGNBVGY3TQOJQ"))
			Expect(stored.Activated).To(BeFalse())
		})

		It("should replace the secret on conflict", func() {
			Expect(repo.SaveSecret(ctx, &otpDatamodel.Secret{
				UserID:    userID,
				Secret:    "FIRSTSECRET",
				CreatedAt: time.Now(),
			})).To(Succeed())

			Expect(repo.SaveSecret(ctx, &otpDatamodel.Secret{
				UserID:    userID,
				Secret:    "SECONDSECRET",
				CreatedAt: time.Now(),
			})).To(Succeed())

			stored, err := repo.GetSecret(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Secret).To(Equal("SECONDSECRET"))

			var count int64
			Expect(db.Model(&SQLiteSecret{}).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("GetSecret", func() {
		It("should return nil for an unknown user", func() {
			stored, err := repo.GetSecret(ctx, "unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeNil())
		})
	})

	Describe("ActivateSecret", func() {
		It("should flip the activated flag and stamp the time", func() {
			Expect(repo.SaveSecret(ctx, &otpDatamodel.Secret{
				UserID:    userID,
				Secret:    "GEZDGNBVGY3TQOJQ",
				CreatedAt: time.Now(),
			})).To(Succeed())

			Expect(repo.ActivateSecret(ctx, userID, time.Now())).To(Succeed())

			stored, err := repo.GetSecret(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Activated).To(BeTrue())
			Expect(stored.ActivatedAt).NotTo(BeNil())
		})
	})

	Describe("DeleteSecret", func() {
		It("should remove the enrollment", func() {
			Expect(repo.SaveSecret(ctx, &otpDatamodel.Secret{
				UserID:    userID,
				Secret:    "GEZDGNBVGY3TQOJQ",
				CreatedAt: time.Now(),
			})).To(Succeed())

			Expect(repo.DeleteSecret(ctx, userID)).To(Succeed())

			stored, err := repo.GetSecret(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeNil())
		})
	})

	Describe("Challenges", func() {
		newChallenge := func(id string, expiresAt time.Time) *otpDatamodel.Challenge {
			return &otpDatamodel.Challenge{
				ID:        id,
				UserID:    userID,
				ExpiresAt: expiresAt,
				CreatedAt: time.Now(),
			}
		}

		It("should round-trip a challenge", func() {
			Expect(repo.CreateChallenge(ctx, newChallenge("c1", time.Now().Add(5*time.Minute)))).To(Succeed())

			stored, err := repo.GetChallenge(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.UserID).To(Equal(userID))
			Expect(stored.Attempts).To(Equal(0))
			Expect(stored.Consumed).To(BeFalse())
		})

		It("should return nil for an unknown challenge", func() {
			stored, err := repo.GetChallenge(ctx, "ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeNil())
		})

		It("should increment attempts atomically", func() {
			Expect(repo.CreateChallenge(ctx, newChallenge("c1", time.Now().Add(5*time.Minute)))).To(Succeed())

			Expect(repo.IncrementAttempts(ctx, "c1")).To(Succeed())
			Expect(repo.IncrementAttempts(ctx, "c1")).To(Succeed())

			stored, err := repo.GetChallenge(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Attempts).To(Equal(2))
		})

		It("should consume a challenge", func() {
			Expect(repo.CreateChallenge(ctx, newChallenge("c1", time.Now().Add(5*time.Minute)))).To(Succeed())

			Expect(repo.ConsumeChallenge(ctx, "c1")).To(Succeed())

			stored, err := repo.GetChallenge(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Consumed).To(BeTrue())
		})

		It("should delete expired and consumed challenges", func() {
			Expect(repo.CreateChallenge(ctx, newChallenge("expired", time.Now().Add(-time.Minute)))).To(Succeed())
			Expect(repo.CreateChallenge(ctx, newChallenge("consumed", time.Now().Add(5*time.Minute)))).To(Succeed())
			Expect(repo.CreateChallenge(ctx, newChallenge("live", time.Now().Add(5*time.Minute)))).To(Succeed())
			Expect(repo.ConsumeChallenge(ctx, "consumed")).To(Succeed())

			removed, err := repo.DeleteExpiredChallenges(ctx, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(int64(2)))

			live, err := repo.GetChallenge(ctx, "live")
			Expect(err).NotTo(HaveOccurred())
			Expect(live).NotTo(BeNil())
		})
	})
})
