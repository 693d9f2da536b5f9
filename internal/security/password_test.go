package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if hash == "correct horse battery" {
		t.Fatalf("hash must not equal the plain text")
	}

	if err := CheckPassword(hash, "correct horse battery"); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}

	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestLongPasswordsHashAndCompareWhole(t *testing.T) {
	prefix := strings.Repeat("p", bcryptMaxInput)
	long := prefix + "-tail-one"

	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword error for %d bytes: %v", len(long), err)
	}

	if err := CheckPassword(hash, long); err != nil {
		t.Fatalf("expected long password to match: %v", err)
	}

	// bytes past 72 still count
	if err := CheckPassword(hash, prefix+"-tail-two"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch for a different tail, got %v", err)
	}
	if err := CheckPassword(hash, prefix); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch for the bare prefix, got %v", err)
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "whatever")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected a bcrypt error, got %v", err)
	}
}

func TestCostIsHonoured(t *testing.T) {
	old := Cost
	Cost = bcrypt.MinCost
	t.Cleanup(func() { Cost = old })

	hash, err := HashPassword("quick-hash-please")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost error: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Fatalf("cost = %d, want %d", cost, bcrypt.MinCost)
	}
}
