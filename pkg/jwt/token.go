package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidClaims is returned when a token lacks a subject or role
var ErrInvalidClaims = errors.New("token claims are invalid")

// Claims carries the caller identity issued by the auth provider
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService verifies HS256 bearer tokens
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService for the shared secret
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Parse validates a token and returns its claims
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" || claims.Role == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Sign issues a token. The API only verifies tokens; this serves tooling and tests.
func (s *TokenService) Sign(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
