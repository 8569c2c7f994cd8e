// Package auth provides session tokens and password hashing.
//
// SESSION FLOW:
//  1. User submits the login form with username + password
//  2. The auth service verifies the bcrypt hash and asks TokenService for
//     a signed session token
//  3. The handler stores the token in an HttpOnly cookie
//  4. On later requests, middleware reads the cookie, validates the token,
//     and puts the userID into the request context
//
// The token is a JWT signed with HMAC-SHA256. It is stateless — the server
// keeps no session table; everything needed (userID in "sub", expiry) is
// inside the signed token, and the signature stops tampering.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer ties tokens to this application so a token minted by some other
// service signed with a leaked shared secret still fails validation.
const issuer = "screenroom"

// TokenService handles session token creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens, plus the session
// lifetime. The same secret must be used for both operations.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and session
// lifetime. The secret should be at least 32 bytes of random data in
// production (e.g. SESSION_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the token payload. jwt.RegisteredClaims carries the standard
// fields; the userID goes in "sub" (Subject).
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new session token for the given userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// TTL returns the configured session lifetime, which handlers also use as
// the cookie Max-Age so the cookie and the token expire together.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Validate parses and verifies a session token string and returns the
// userID from the "sub" claim.
//
// jwt.WithValidMethods pins the algorithm to HS256 — without it, a crafted
// token could claim a different algorithm and sidestep the signature check
// (the classic algorithm-confusion attack).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
