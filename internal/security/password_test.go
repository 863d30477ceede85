package security

import (
	"strings"
	"testing"

	"github.com/sandeepkv93/secure-forum-backend/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Secur3!Pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !LooksLikePasswordHash(hash) {
		t.Fatalf("expected bcrypt shaped hash, got %q", hash)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("expected cost 10 hash, got %q", hash[:7])
	}
	if !VerifyPassword("Secur3!Pass", hash) {
		t.Fatal("expected verify to succeed for the original password")
	}
	if VerifyPassword("Secur3!Pasz", hash) {
		t.Fatal("expected verify to fail for a different password")
	}
}

func TestHashPasswordRejectsBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := HashPassword(in)
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Fatalf("HashPassword(%q) expected validation error, got %v", in, err)
		}
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73))
	if apperror.FieldOf(err) != "password" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}

func TestVerifyPasswordEmptyArgumentsReturnFalse(t *testing.T) {
	hash, err := HashPassword("Secur3!Pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if VerifyPassword("", hash) {
		t.Fatal("expected false for empty plaintext")
	}
	if VerifyPassword("Secur3!Pass", "") {
		t.Fatal("expected false for empty hash")
	}
	if VerifyPassword("Secur3!Pass", "not-a-hash") {
		t.Fatal("expected false for malformed hash")
	}
}

func TestPasswordNeedsRehash(t *testing.T) {
	current, err := HashPassword("Secur3!Pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if PasswordNeedsRehash(current) {
		t.Fatal("expected current-cost hash to be accepted")
	}
	legacy, err := bcrypt.GenerateFromPassword([]byte("Secur3!Pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("legacy hash: %v", err)
	}
	if !PasswordNeedsRehash(string(legacy)) {
		t.Fatal("expected lower-cost hash to need a rehash")
	}
	if !PasswordNeedsRehash("garbage") {
		t.Fatal("expected garbage to need a rehash")
	}
}

func TestLooksLikePasswordHash(t *testing.T) {
	cases := map[string]bool{
		"$2a$10$" + strings.Repeat("a", 53): true,
		"$2b$12$" + strings.Repeat("Z", 53): true,
		"$2y$04$" + strings.Repeat("/", 53): true,
		"$2x$10$" + strings.Repeat("a", 53): false,
		"$2a$10$" + strings.Repeat("a", 52): false,
		"Secur3!Pass":                       false,
		"":                                  false,
	}
	for in, want := range cases {
		if got := LooksLikePasswordHash(in); got != want {
			t.Fatalf("LooksLikePasswordHash(%q)=%v want %v", in, got, want)
		}
	}
}
