// Package password wraps the slow adaptive hash used for credential storage.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is an exported constant or variable used by the authentication engine.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher defines a public type used by sqlauth APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	cost int
}

// NewHasher creates a bcrypt-backed [Hasher]. A cost of zero selects the
// bcrypt default; the cost is also the reference for [Hasher.NeedsRehash].
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{cost: cost}, nil
}

// Cost describes the cost operation and its observable behavior.
func (h *Hasher) Cost() int { return h.cost }

// Hash describes the hash operation and its observable behavior.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. A mismatch is not
// an error; only malformed hashes produce one.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NeedsRehash reports whether the stored hash was produced with parameters
// weaker than the hasher's current cost, signalling that the credential
// should be transparently re-hashed on the next successful verification.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < h.cost, nil
}
