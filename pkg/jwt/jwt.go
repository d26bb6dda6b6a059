package jwt

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

const (
	issuer   = "go-bookstore-ws"
	tokenTTL = 12 * time.Hour // satu shift kasir
)

var (
	mu     sync.RWMutex
	secret []byte
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Privileges   []string  `json:"privileges"`
	TokenVersion string    `json:"token_version"`
	jwt.RegisteredClaims
}

// SetSecret overrides the signing key read from JWT_SECRET.
func SetSecret(key string) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(key)
}

// GetSecretKey returns the configured secret, then JWT_SECRET, then a dev default
func GetSecretKey() []byte {
	mu.RLock()
	defer mu.RUnlock()
	if len(secret) > 0 {
		return secret
	}
	if env := os.Getenv("JWT_SECRET"); env != "" {
		return []byte(env)
	}
	return []byte("bookstore-dev-secret-change-in-production")
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(userID uuid.UUID, email, name, role string, privileges []string, tokenVersion string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       userID,
		Email:        email,
		Name:         name,
		Role:         role,
		Privileges:   privileges,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSecretKey())
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return GetSecretKey(), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
