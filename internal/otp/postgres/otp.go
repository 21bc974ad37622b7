package postgres

import (
	"context"
	"errors"
	"time"

	otpDatamodel "github.com/authkit/authkit/internal/core/datamodel/otp"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetSecret(ctx context.Context, userID string) (*otpDatamodel.Secret, error) {
	var secret otpDatamodel.Secret
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&secret).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &secret, nil
}

// SaveSecret upserts the user's secret. A pending re-enrollment replaces the
// previous pending secret.
func (r *Repository) SaveSecret(ctx context.Context, secret *otpDatamodel.Secret) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"secret", "activated", "created_at"}),
		}).
		Create(secret).Error
}

func (r *Repository) ActivateSecret(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&otpDatamodel.Secret{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"activated": true, "activated_at": at}).
		Error
}

func (r *Repository) DeleteSecret(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&otpDatamodel.Secret{}).
		Error
}

func (r *Repository) CreateChallenge(ctx context.Context, challenge *otpDatamodel.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *Repository) GetChallenge(ctx context.Context, challengeID string) (*otpDatamodel.Challenge, error) {
	var challenge otpDatamodel.Challenge
	err := r.db.WithContext(ctx).Where("id = ?", challengeID).First(&challenge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *Repository) IncrementAttempts(ctx context.Context, challengeID string) error {
	return r.db.WithContext(ctx).
		Model(&otpDatamodel.Challenge{}).
		Where("id = ?", challengeID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).
		Error
}

func (r *Repository) ConsumeChallenge(ctx context.Context, challengeID string) error {
	return r.db.WithContext(ctx).
		Model(&otpDatamodel.Challenge{}).
		Where("id = ?", challengeID).
		UpdateColumn("consumed", true).
		Error
}

func (r *Repository) DeleteExpiredChallenges(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR consumed = ?", before, true).
		Delete(&otpDatamodel.Challenge{})
	return result.RowsAffected, result.Error
}
