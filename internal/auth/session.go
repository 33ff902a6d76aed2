package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/blog-platform/internal/apperror"
)

// SessionTTL is the lifetime of a session claim.
const SessionTTL = time.Hour

// Claims is the payload of a session claim.
type Claims struct {
	Email  string `json:"email"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session claims. It keeps no state
// beyond the secret: claims cannot be revoked before they expire.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Issue signs a claim for the user valid from now until now+ttl.
func (t *TokenIssuer) Issue(email, userID string) (string, *Claims, error) {
	issued := t.now()
	claims := &Claims{
		Email:  email,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session claim: %w", err)
	}
	return signed, claims, nil
}

// Verify parses a signed claim. Bad signatures, foreign algorithms,
// malformed input and expired claims all yield an Auth AppError.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.NewAuth("Session expired", err)
		}
		return nil, apperror.NewAuth("Invalid session token", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, apperror.NewAuth("Invalid session token", nil)
	}
	return claims, nil
}
