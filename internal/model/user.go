// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered writer account.
//
// Username and Email are both UNIQUE in the database — either one colliding
// at registration is a duplicate-identity error. PasswordHash holds a bcrypt
// hash (salt embedded in the string); the plaintext password is never stored
// and never appears in a model.
//
// The `json:"-"` tag on PasswordHash means the hash can never leak through
// any JSON response, even if a handler serialises a whole User by accident.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
