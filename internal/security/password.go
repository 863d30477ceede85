package security

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
)

// PasswordCost is the bcrypt cost used for every new hash. Stored hashes encode their
// own cost, so raising it only affects hashes produced afterwards.
const PasswordCost = 10

var passwordHashPattern = regexp.MustCompile(`^\$2[aby]\$\d{2}\$.{53}$`)

func HashPassword(plain string) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", apperror.Validation("password", "password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("password", "password must be at most 72 bytes")
		}
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordNeedsRehash reports whether hash was produced with a cost other than
// PasswordCost. Unparseable hashes always need a rehash.
func PasswordNeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != PasswordCost
}

// LooksLikePasswordHash reports whether s has the shape of a stored bcrypt hash.
func LooksLikePasswordHash(s string) bool {
	return passwordHashPattern.MatchString(s)
}
