package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readnest/internal/model"
)

// RefreshTokenRepository defines refresh token persistence operations.
type RefreshTokenRepository interface {
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	Create(ctx context.Context, token *model.RefreshToken) error
	// MarkUsed flips is_used on a still-valid token and reports whether this
	// call was the one that consumed it.
	MarkUsed(ctx context.Context, id uint, now time.Time) (bool, error)
	// RevokeAllValidForUser revokes every unused, unrevoked, unexpired token of the user.
	RevokeAllValidForUser(ctx context.Context, userID uint, now time.Time) (int64, error)
	// ReplaceForUser revokes the user's valid tokens and stores token in one transaction.
	ReplaceForUser(ctx context.Context, userID uint, token *model.RefreshToken, now time.Time) error
	CountValidForUser(ctx context.Context, userID uint, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error
}

func (r *refreshTokenRepository) MarkUsed(ctx context.Context, id uint, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("id = ? AND is_used = ? AND is_revoked = ? AND expires_at > ?", id, false, false, now).
		Update("is_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *refreshTokenRepository) RevokeAllValidForUser(ctx context.Context, userID uint, now time.Time) (int64, error) {
	return revokeValid(r.db.WithContext(ctx), userID, now)
}

func (r *refreshTokenRepository) ReplaceForUser(ctx context.Context, userID uint, token *model.RefreshToken, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the owner so concurrent logins for the same user run one after another.
		var owner model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", userID).First(&owner).Error; err != nil {
			return err
		}
		if _, err := revokeValid(tx, userID, now); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(token).Error
	})
}

func (r *refreshTokenRepository) CountValidForUser(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND is_used = ? AND expires_at > ?", userID, false, false, now).
		Count(&count).Error
	return count, err
}

func revokeValid(db *gorm.DB, userID uint, now time.Time) (int64, error) {
	res := db.Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ? AND is_used = ? AND expires_at > ?", userID, false, false, now).
		Update("is_revoked", true)
	return res.RowsAffected, res.Error
}
