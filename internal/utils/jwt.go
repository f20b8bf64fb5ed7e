package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the payload carried by an auth token.
type TokenClaims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSubject identifies the account a token is issued for.
type TokenSubject struct {
	ID       uuid.UUID
	Email    string
	Username string
	Role     string
}

// GenerateToken creates a signed JWT for the provided account.
func GenerateToken(secret string, sub TokenSubject, ttl time.Duration, now time.Time) (string, error) {
	claims := &TokenClaims{
		UserID:   sub.ID.String(),
		Email:    sub.Email,
		Username: sub.Username,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the account ID in its subject.
func ParseToken(secret, tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		return uuid.Nil, errors.New("token has no subject")
	}
	return uuid.Parse(subject)
}
