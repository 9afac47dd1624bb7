package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feria-cr/feria-backend/pkg/db/models"
)

// TokenRepository persists password reset tokens.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository constructs a reset token repo bound to the provided GORM DB.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new reset token row.
func (r *TokenRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// FindByHash loads a token row by its SHA-256 digest.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed stamps the token as consumed.
func (r *TokenRepository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PasswordResetToken{}).
		Where("id = ?", id).
		UpdateColumn("used_at", at).Error
}

// RevokeForUser invalidates every outstanding token of one user.
func (r *TokenRepository) RevokeForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL", userID).
		Delete(&models.PasswordResetToken{}).Error
}

// PurgeExpired deletes tokens past their expiry plus the retention window.
func (r *TokenRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", olderThan).
		Delete(&models.PasswordResetToken{})
	return result.RowsAffected, result.Error
}
