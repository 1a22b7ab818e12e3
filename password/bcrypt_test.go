package password

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash equals plaintext")
	}

	ok, err := h.Verify("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("Verify correct = %v, %v", ok, err)
	}
	ok, err = h.Verify("wrong password", hash)
	if err != nil || ok {
		t.Fatalf("Verify wrong = %v, %v", ok, err)
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	h, err := NewHasher(0)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("Hash empty = %v, want ErrEmptyPassword", err)
	}
}

func TestNewHasherCostRange(t *testing.T) {
	if _, err := NewHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatalf("cost above maximum accepted")
	}
	h, err := NewHasher(0)
	if err != nil {
		t.Fatalf("NewHasher default failed: %v", err)
	}
	if h.Cost() != bcrypt.DefaultCost {
		t.Fatalf("Cost = %d, want bcrypt default", h.Cost())
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	strong, err := NewHasher(bcrypt.MinCost + 2)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	hash, err := weak.Hash("secret-pw")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	needs, err := strong.NeedsRehash(hash)
	if err != nil || !needs {
		t.Fatalf("NeedsRehash with stronger hasher = %v, %v, want true", needs, err)
	}
	needs, err = weak.NeedsRehash(hash)
	if err != nil || needs {
		t.Fatalf("NeedsRehash with same hasher = %v, %v, want false", needs, err)
	}
}
