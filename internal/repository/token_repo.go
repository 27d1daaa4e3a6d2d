package repository

import (
	"context"
	"time"

	"streetwalk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenRepository stores refresh tokens and single-use password reset tokens.
type TokenRepository interface {
	CreateRefresh(ctx context.Context, token *model.RefreshToken) error
	GetRefresh(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefresh(ctx context.Context, token string) error
	DeleteRefreshByUser(ctx context.Context, userID uuid.UUID) error

	CreateReset(ctx context.Context, token *model.PasswordResetToken) error
	GetReset(ctx context.Context, token string) (*model.PasswordResetToken, error)
	DeleteReset(ctx context.Context, token string) error
	DeleteExpiredResets(ctx context.Context) error
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new instance of TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) CreateRefresh(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetRefresh only returns tokens that have not yet expired.
func (r *tokenRepository) GetRefresh(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.db.WithContext(ctx).First(&rt, "token = ? AND expires_at > ?", token, time.Now()).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *tokenRepository) DeleteRefresh(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

func (r *tokenRepository) DeleteRefreshByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

func (r *tokenRepository) CreateReset(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetReset treats expired-but-not-yet-purged tokens as absent.
func (r *tokenRepository) GetReset(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	var prt model.PasswordResetToken
	err := r.db.WithContext(ctx).First(&prt, "token = ? AND expires_at > ?", token, time.Now()).Error
	if err != nil {
		return nil, err
	}
	return &prt, nil
}

func (r *tokenRepository) DeleteReset(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.PasswordResetToken{}).Error
}

func (r *tokenRepository) DeleteExpiredResets(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&model.PasswordResetToken{}).Error
}
