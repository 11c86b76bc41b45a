package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/arledger/backend/internal/infrastructure/config"
)

// TokenType distinguishes access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Token validation errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrMissingTenantID  = errors.New("token missing tenant ID")
	ErrMissingUserID    = errors.New("token missing user ID")
)

// Claims are the JWT claims carried by issued tokens. This service only
// validates tokens; issuance lives with the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string    `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	TokenType   TokenType `json:"token_type"`
}

// GetTenantUUID parses the tenant ID claim
func (c *Claims) GetTenantUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant ID in token: %w", err)
	}
	return id, nil
}

// GetUserUUID parses the user ID claim
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token: %w", err)
	}
	return id, nil
}

// HasPermission reports whether the token carries the permission
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}
	return false
}

// JWTService validates HS256-signed access tokens
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a JWT validation service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// ValidateAccessToken parses and validates an access token
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
