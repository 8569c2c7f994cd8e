// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function designed to be slow, and that
// slowness is the security feature: it makes offline brute-force expensive.
// It also generates a random salt per password and embeds it in the output
// string, so two users with the same password get different hashes and no
// separate salt column is needed.
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256);
// the stored value must always be the bcrypt output string.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used when the caller doesn't
// override it. Cost 12 takes roughly a quarter second on a modern server —
// negligible for a login, brutal for an attacker.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected: tests use
// bcrypt.MinCost to avoid the ~250ms per hash, and operators can raise the
// cost via configuration as hardware gets faster.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. cost <= 0 selects the
// default work factor.
func NewPasswordService(cost int) *PasswordService {
	if cost <= 0 {
		cost = defaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is a self-contained string (version, cost, salt, and digest)
// that goes straight into the password_hash column.
//
// Returns an error for plaintext longer than 72 bytes: bcrypt silently
// truncates beyond that, so we reject instead of surprising the user.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match.
//
// bcrypt.CompareHashAndPassword compares in constant time, so callers are
// safe against timing probes on the hash comparison itself.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
