package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/secure-forum-backend/internal/domain"
	"github.com/sandeepkv93/secure-forum-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// Credentials is the minimal projection sign-in needs.
type Credentials struct {
	UserID       string
	Email        string
	Name         *string
	PasswordHash string
}

type CredentialRepository interface {
	FindCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
}

type UserRepository interface {
	CredentialRepository
	FindByID(ctx context.Context, id string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "name", "password_hash").
		Where("email = ?", domain.NormalizeEmail(email)).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_credentials_by_email", outcome(err, ErrUserNotFound))
	if err != nil {
		return nil, err
	}
	return &Credentials{UserID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash}, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_id", outcome(err, ErrUserNotFound))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", domain.NormalizeEmail(email)).
		Count(&count).Error
	observability.RecordRepositoryOperation(ctx, "user", "email_exists", outcome(err, nil))
	return count > 0, err
}

// Create inserts user, assigning an id when empty. A unique violation on email is
// reported as ErrEmailTaken.
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ensureID(&user.ID); err != nil {
		return err
	}
	user.Email = domain.NormalizeEmail(user.Email)
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrEmailTaken
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", outcome(err, ErrEmailTaken))
	return err
}

func (r *GormUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "updated_at": utcNow()})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "update_password_hash", outcome(err, ErrUserNotFound))
	return err
}
