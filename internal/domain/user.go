package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"github.com/sandeepkv93/secure-forum-backend/internal/security"
)

const (
	MaxEmailLength    = 255
	MaxNameLength     = 100
	MinPasswordLength = 8

	// PasswordSymbols is the set of characters that satisfy the symbol rule.
	PasswordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:60;not null" json:"-"`
	Name         *string   `gorm:"size:100" json:"name"`
	Avatar       *string   `gorm:"size:512" json:"avatar"`
	Bio          *string   `gorm:"type:text" json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserParams struct {
	ID       string
	Email    string
	Password string // plaintext at registration, bcrypt hash when rebuilt from storage
	Name     string
	Avatar   string
	Bio      string
}

// NewUser validates p and builds a User. A Password that already has the stored-hash
// shape skips the strength rules; the caller is responsible for hashing plaintext before
// persisting.
func NewUser(p UserParams) (*User, error) {
	email := NormalizeEmail(p.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(p.Password); err != nil {
		return nil, err
	}
	if err := ValidateName(p.Name); err != nil {
		return nil, err
	}
	u := &User{ID: p.ID, Email: email, Name: optional(p.Name), Avatar: optional(p.Avatar), Bio: optional(p.Bio)}
	if security.LooksLikePasswordHash(p.Password) {
		u.PasswordHash = p.Password
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.Validation("email", "email is required")
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return apperror.Validation("email", "email must be at most 255 characters")
	}
	if !emailPattern.MatchString(email) {
		return apperror.Validation("email", "email format is invalid")
	}
	return nil
}

// ValidatePassword accepts a stored hash as-is and otherwise applies the strength rules.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) != "" && security.LooksLikePasswordHash(password) {
		return nil
	}
	return ValidatePasswordStrength(password)
}

// ValidatePasswordStrength applies the strength rules in a fixed order and reports the
// first violated one.
func ValidatePasswordStrength(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperror.Validation("password", "password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.Validation("password", "password must be at least 8 characters")
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r) && r < utf8.RuneSelf:
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !upper:
		return apperror.Validation("password", "password must contain at least one uppercase letter")
	case !lower:
		return apperror.Validation("password", "password must contain at least one lowercase letter")
	case !digit:
		return apperror.Validation("password", "password must contain at least one digit")
	case !symbol:
		return apperror.Validation("password", "password must contain at least one symbol ("+PasswordSymbols+")")
	}
	return nil
}

func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperror.Validation("name", "name must be at most 100 characters")
	}
	return nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
