package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/repository"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	findErr error
	lookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) FindCredentialsByEmail(_ context.Context, email string) (*repository.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == domain.NormalizeEmail(email) {
			return &repository.Credentials{UserID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash}, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == domain.NormalizeEmail(email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	err      error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("session-%d", len(r.sessions)+1)
	}
	s.CreatedAt = time.Now().UTC()
	cp := *s
	r.sessions[s.TokenHash] = &cp
	return nil
}

func (r *fakeSessionRepo) FindByHash(_ context.Context, hash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[hash]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ListActiveByUserID(_ context.Context, userID string, now time.Time) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) RevokeByUserID(_ context.Context, userID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	now := time.Now().UTC()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			s.RevokedReason = &reason
			n++
		}
	}
	return n, nil
}

func newSQLiteForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.Open("sqlite", dsn, repository.Options{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUserForTest(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	name := strings.Split(email, "@")[0]
	u := &domain.User{Email: email, PasswordHash: "x", Name: &name}
	if err := repository.NewUserRepository(db).Create(t.Context(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
