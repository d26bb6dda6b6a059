package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	SetSecret("test-secret")
	id := uuid.New()

	token, err := GenerateToken(id, "kasir@toko.id", "Kasir", "CASHIER", []string{"invoice:view"}, "v1")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "CASHIER", claims.Role)
	assert.Equal(t, []string{"invoice:view"}, claims.Privileges)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateToken_Rejects(t *testing.T) {
	SetSecret("test-secret")
	good, err := GenerateToken(uuid.New(), "a@b.c", "A", "OWNER", nil, "v1")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    issuer,
		},
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	foreignToken, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good + "x"},
		{"expired", expiredToken},
		{"wrong issuer", foreignToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	SetSecret("rotated")
	_, err = ValidateToken(good)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
