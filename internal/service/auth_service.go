package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
	"github.com/sandeepkv93/secure-forum-backend/internal/security"
)

// InvalidCredentialsMessage is returned for both unknown emails and wrong passwords.
const InvalidCredentialsMessage = "incorrect email or password"

const signOutReason = "sign_out"

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type RegisterResult struct {
	UserID string
	Email  string
	Name   *string
}

type SignInInput struct {
	Email    string
	Password string
}

type SignInResult struct {
	UserID string
	Email  string
	Name   *string
}

type SignOutResult struct {
	Success         bool
	RevokedSessions int64
}

type AuthService struct {
	userRepo repository.UserRepository
	sessions SessionManager
	negCache NegativeLookupCacheStore

	// compared against on unknown emails
	dummyHash string
}

func NewAuthService(userRepo repository.UserRepository, sessions SessionManager, negCache NegativeLookupCacheStore) *AuthService {
	if negCache == nil {
		negCache = NewNoopNegativeLookupCacheStore()
	}
	dummyHash, err := security.HashPassword("not-a-real-password-Aa1!")
	if err != nil {
		slog.Warn("dummy password hash unavailable", "error", err)
	}
	return &AuthService{userRepo: userRepo, sessions: sessions, negCache: negCache, dummyHash: dummyHash}
}

// Register validates the plaintext password against the strength rules, hashes it and
// stores the user. This is the only place strength is enforced.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	ctx, span := observability.StartSpan(ctx, "auth.register")
	defer span.End()

	user, err := domain.NewUser(domain.UserParams{Email: in.Email, Password: in.Password, Name: in.Name})
	if err == nil {
		// a hash-shaped password skips the entity rules but is still plaintext here
		err = domain.ValidatePasswordStrength(in.Password)
	}
	if err != nil {
		observability.RecordSignUp(ctx, "invalid")
		return nil, err
	}
	exists, err := s.userRepo.EmailExists(ctx, user.Email)
	if err != nil {
		observability.RecordSignUp(ctx, "error")
		return nil, apperror.Unexpected("register user", err)
	}
	if exists {
		observability.RecordSignUp(ctx, "conflict")
		return nil, apperror.Conflict("email already in use")
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		observability.RecordSignUp(ctx, "invalid")
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			observability.RecordSignUp(ctx, "conflict")
			return nil, apperror.Conflict("email already in use")
		}
		observability.RecordSignUp(ctx, "error")
		return nil, apperror.Unexpected("register user", err)
	}
	if err := s.negCache.InvalidateNamespace(ctx, userNotFoundNamespace); err != nil {
		slog.WarnContext(ctx, "negative lookup cache invalidation failed", "namespace", userNotFoundNamespace, "error", err)
	}
	observability.RecordSignUp(ctx, "success")
	return &RegisterResult{UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// SignIn checks credentials without touching sessions. Unknown emails still pay for one
// bcrypt comparison so both failure paths take comparable time.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	ctx, span := observability.StartSpan(ctx, "auth.sign_in")
	defer span.End()

	if strings.TrimSpace(in.Email) == "" {
		observability.RecordSignIn(ctx, "invalid")
		return nil, apperror.Validation("email", "email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		observability.RecordSignIn(ctx, "invalid")
		return nil, apperror.Validation("password", "password is required")
	}

	creds, err := s.userRepo.FindCredentialsByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			security.VerifyPassword(in.Password, s.dummyHash)
			observability.RecordSignIn(ctx, "failure")
			return nil, apperror.Authentication(InvalidCredentialsMessage)
		}
		observability.RecordSignIn(ctx, "error")
		return nil, apperror.Unexpected("sign in", err)
	}
	if !security.VerifyPassword(in.Password, creds.PasswordHash) {
		observability.RecordSignIn(ctx, "failure")
		return nil, apperror.Authentication(InvalidCredentialsMessage)
	}
	if security.PasswordNeedsRehash(creds.PasswordHash) {
		s.rehashPassword(ctx, creds.UserID, in.Password)
	}
	observability.RecordSignIn(ctx, "success")
	return &SignInResult{UserID: creds.UserID, Email: creds.Email, Name: creds.Name}, nil
}

// SignOut revokes every active session of userID. Nothing to revoke is still success.
func (s *AuthService) SignOut(ctx context.Context, userID string) (*SignOutResult, error) {
	ctx, span := observability.StartSpan(ctx, "auth.sign_out")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		observability.RecordSignOut(ctx, "invalid")
		return nil, apperror.Validation("userId", "user id is required")
	}
	n, err := s.sessions.RevokeAll(ctx, userID, signOutReason)
	if err != nil {
		observability.RecordSignOut(ctx, "error")
		return nil, err
	}
	observability.RecordSignOut(ctx, "success")
	return &SignOutResult{Success: true, RevokedSessions: n}, nil
}

// rehashPassword upgrades a hash produced with an older cost. Failures leave the old hash in
// place and never fail the sign-in.
func (s *AuthService) rehashPassword(ctx context.Context, userID, plain string) {
	hash, err := security.HashPassword(plain)
	if err == nil {
		err = s.userRepo.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "password rehash failed", "user_id", userID, "error", err)
	}
}
