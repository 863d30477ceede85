package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
	"github.com/sandeepkv93/secure-forum-backend/internal/security"
)

const maxUserAgentLength = 512

// Principal is the authenticated identity behind a request.
type Principal struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

type IssuedSession struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// SessionView is an active session as shown to its owner. The token hash never leaves the
// service.
type SessionView struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	pepper      string
	ttl         time.Duration
	now         func() time.Time
}

func NewSessionService(sessionRepo repository.SessionRepository, pepper string, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		pepper:      pepper,
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a session for userID and returns the raw token. Only its peppered hash is
// stored.
func (s *SessionService) Issue(ctx context.Context, userID, userAgent, ip string) (*IssuedSession, error) {
	if userID == "" {
		return nil, apperror.Validation("userId", "user id is required")
	}
	token, err := security.NewSessionToken()
	if err != nil {
		return nil, apperror.Unexpected("issue session", err)
	}
	session := &domain.Session{
		UserID:    userID,
		TokenHash: security.HashSessionToken(token, s.pepper),
		UserAgent: truncate(userAgent, maxUserAgentLength),
		IP:        ip,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, apperror.Unexpected("issue session", err)
	}
	return &IssuedSession{SessionID: session.ID, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Resolve maps a raw token to its principal. Missing, unknown, revoked and expired tokens
// all resolve to ok=false with a nil error; only store failures return an error.
func (s *SessionService) Resolve(ctx context.Context, token string) (Principal, bool, error) {
	if token == "" {
		observability.RecordSessionResolution(ctx, "anonymous")
		return Principal{}, false, nil
	}
	session, err := s.sessionRepo.FindByHash(ctx, security.HashSessionToken(token, s.pepper))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionResolution(ctx, "unknown")
			return Principal{}, false, nil
		}
		observability.RecordSessionResolution(ctx, "error")
		return Principal{}, false, err
	}
	now := s.now()
	if !session.IsActive(now) {
		if session.RevokedAt != nil {
			observability.RecordSessionResolution(ctx, "revoked")
		} else {
			observability.RecordSessionResolution(ctx, "expired")
		}
		return Principal{}, false, nil
	}
	observability.RecordSessionResolution(ctx, "active")
	return Principal{UserID: session.UserID, SessionID: session.ID, ExpiresAt: session.ExpiresAt}, true, nil
}

func (s *SessionService) RevokeAll(ctx context.Context, userID, reason string) (int64, error) {
	if userID == "" {
		return 0, apperror.Validation("userId", "user id is required")
	}
	n, err := s.sessionRepo.RevokeByUserID(ctx, userID, reason)
	if err != nil {
		return 0, apperror.Unexpected("revoke sessions", err)
	}
	return n, nil
}

// ListActive returns the unrevoked, unexpired sessions of userID, newest first.
func (s *SessionService) ListActive(ctx context.Context, userID string) ([]SessionView, error) {
	if userID == "" {
		return nil, apperror.Validation("userId", "user id is required")
	}
	sessions, err := s.sessionRepo.ListActiveByUserID(ctx, userID, s.now())
	if err != nil {
		return nil, apperror.Unexpected("list sessions", err)
	}
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:        session.ID,
			UserAgent: session.UserAgent,
			IP:        session.IP,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
	}
	return views, nil
}

func truncate(v string, max int) string {
	if utf8.RuneCountInString(v) <= max {
		return v
	}
	return string([]rune(v)[:max])
}
