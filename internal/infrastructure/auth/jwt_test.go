package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arledger/backend/internal/infrastructure/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "arledger",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		TenantID:  uuid.NewString(),
		UserID:    uuid.NewString(),
		Username:  "analyst",
		TokenType: TokenTypeAccess,
	}
}

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "arledger"})
}

func TestValidateAccessToken(t *testing.T) {
	svc := newTestService()

	t.Run("valid token", func(t *testing.T) {
		claims := validClaims()
		parsed, err := svc.ValidateAccessToken(signToken(t, claims, testSecret))
		require.NoError(t, err)
		assert.Equal(t, claims.TenantID, parsed.TenantID)
		assert.Equal(t, claims.UserID, parsed.UserID)

		tenantUUID, err := parsed.GetTenantUUID()
		require.NoError(t, err)
		assert.Equal(t, claims.TenantID, tenantUUID.String())
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("   ")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(signToken(t, validClaims(), "another-secret-another-secret!!!"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := svc.ValidateAccessToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		claims := validClaims()
		claims.TokenType = TokenTypeRefresh
		_, err := svc.ValidateAccessToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("missing tenant rejected", func(t *testing.T) {
		claims := validClaims()
		claims.TenantID = ""
		_, err := svc.ValidateAccessToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})

	t.Run("missing user rejected", func(t *testing.T) {
		claims := validClaims()
		claims.UserID = ""
		_, err := svc.ValidateAccessToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestClaimsHasPermission(t *testing.T) {
	claims := validClaims()
	claims.Permissions = []string{"receivable:read", "receivable:write"}

	assert.True(t, claims.HasPermission("receivable:read"))
	assert.False(t, claims.HasPermission("admin:all"))

	claims.Permissions = []string{"*"}
	assert.True(t, claims.HasPermission("anything"))
}
