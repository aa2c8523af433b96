package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrExpiredSessionToken = errors.New("session token has expired")
)

const sessionIssuer = "storefront-cart"

// SessionClaims identifies an anonymous cart session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionToken issues a signed token for a fresh session id.
func NewSessionToken(secret string, ttl time.Duration) (string, string, error) {
	sessionID := uuid.NewString()
	token, err := SignSessionToken(sessionID, secret, ttl)
	if err != nil {
		return "", "", err
	}
	return sessionID, token, nil
}

// SignSessionToken signs sessionID with HS256.
func SignSessionToken(sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates the token and returns its session id. An
// expired token whose signature still verifies yields its session id together
// with ErrExpiredSessionToken so the session can be renewed.
func ParseSessionToken(tokenString, secret string) (string, error) {
	claims, err := parseSessionClaims(tokenString, secret, jwt.WithIssuer(sessionIssuer))
	if err == nil {
		return claims.SessionID, nil
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return "", ErrInvalidSessionToken
	}

	// expiry is checked before the signature, so verify it on its own
	claims, err = parseSessionClaims(tokenString, secret, jwt.WithoutClaimsValidation())
	if err != nil || claims.Issuer != sessionIssuer {
		return "", ErrInvalidSessionToken
	}
	return claims.SessionID, ErrExpiredSessionToken
}

func parseSessionClaims(tokenString, secret string, opts ...jwt.ParserOption) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}
