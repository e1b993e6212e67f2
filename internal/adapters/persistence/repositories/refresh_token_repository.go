package repositories

import (
	"context"
	"time"

	"libradesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db, now: time.Now}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash finds a live (unrevoked) token by its hash
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.live(ctx).Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.RefreshToken, error) {
	var tokens []*models.RefreshToken
	if err := r.live(ctx).Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uint) error {
	return r.revoke(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *refreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return r.revoke(r.live(ctx).Where("token_hash = ?", tokenHash))
}

func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.revoke(r.live(ctx).Where("user_id = ?", userID))
}

// DeleteExpired removes expired and revoked tokens (cleanup job)
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", r.now()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepository) CountActiveByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.live(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("expires_at > ?", r.now()).
		Count(&count).Error
	return count, err
}

func (r *refreshTokenRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("revoked_at IS NULL")
}

func (r *refreshTokenRepository) revoke(scope *gorm.DB) error {
	now := r.now()
	return scope.Model(&models.RefreshToken{}).Update("revoked_at", &now).Error
}
