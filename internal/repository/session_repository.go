package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByHash(ctx context.Context, hash string) (*domain.Session, error)
	ListActiveByUserID(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)
	RevokeByUserID(ctx context.Context, userID, reason string) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if err := ensureID(&s.ID); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(s).Error
	observability.RecordRepositoryOperation(ctx, "session", "create", outcome(err, nil))
	return err
}

// FindByHash returns the session regardless of state; callers decide whether it is active.
func (r *GormSessionRepository) FindByHash(ctx context.Context, hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrSessionNotFound
	}
	observability.RecordRepositoryOperation(ctx, "session", "find_by_hash", outcome(err, ErrSessionNotFound))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) ListActiveByUserID(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, now).
		Order("created_at DESC").Order("id DESC").
		Find(&sessions).Error
	observability.RecordRepositoryOperation(ctx, "session", "list_active_by_user_id", outcome(err, nil))
	return sessions, err
}

// RevokeByUserID marks every non-revoked session of userID as revoked in one statement and
// reports how many rows changed.
func (r *GormSessionRepository) RevokeByUserID(ctx context.Context, userID, reason string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]any{"revoked_at": utcNow(), "revoked_reason": reason})
	observability.RecordRepositoryOperation(ctx, "session", "revoke_by_user_id", outcome(res.Error, nil))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
