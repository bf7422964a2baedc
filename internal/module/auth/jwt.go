// Package auth validates the identity tokens issued by the external OAuth
// front end. Token issuance, refresh, and the OAuth dance itself live
// outside this service; all the quota and studio modules need from here is
// a stable user key and user class for the current request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserClassPersonal and UserClassBusiness are the supported account tiers.
const (
	UserClassPersonal = "personal"
	UserClassBusiness = "business"
)

// Claims represents JWT token claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Class  string    `json:"class,omitempty"`
}

// UserKey returns the stable quota identity for these claims: the verified
// email when present, the account id otherwise.
func (c *Claims) UserKey() string {
	if c.Email != "" {
		return c.Email
	}
	if c.UserID != uuid.Nil {
		return c.UserID.String()
	}
	return ""
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Issuer: "styleai",
		Expiry: 24 * time.Hour,
	}
}

// JWTManager validates and, for local development, issues access tokens.
type JWTManager struct {
	config *JWTConfig
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(config *JWTConfig) *JWTManager {
	if config == nil {
		config = DefaultJWTConfig()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	return &JWTManager{config: config}
}

// GenerateToken signs a token for the given identity.
func (m *JWTManager) GenerateToken(userID uuid.UUID, email, class string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.config.Expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Email:  email,
		Class:  class,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// ValidateToken validates a token and returns its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return nil, errors.New("unexpected token issuer")
	}

	return claims, nil
}
