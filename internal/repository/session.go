package repository

import (
	"context"
	"errors"
	"time"

	"bugbook/internal/cache"
	"bugbook/internal/models"

	"gorm.io/gorm"
)

// SessionRepository defines persistence operations for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetByID returns (nil, nil) when the session does not exist.
	GetByID(ctx context.Context, id string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository returns a new SessionRepository implementation.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	key := cache.SessionKey(id)

	err := cache.Aside(ctx, key, &session, cache.SessionTTL, func() error {
		return r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSession(ctx, id)
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSession(ctx, id)
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&models.Session{}, "user_id = ?", userID).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, id := range ids {
		cache.InvalidateSession(ctx, id)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry. Cached copies age out via
// the short session TTL.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Session{}, "expires_at < ?", time.Now())
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
