package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritag/veritag/config"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey: "test-secret-key-at-least-32-chars-long",
		Issuer:    "veritag-accounts",
		Audience:  "veritag-api",
	}
}

func mintToken(t *testing.T, cfg *config.JWTConfig, brandID uint, expiresAt time.Time) string {
	t.Helper()
	claims := &BrandClaims{
		BrandID: brandID,
		TokenID: "tok-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)
	return signed
}

func TestTokenService(t *testing.T) {
	cfg := testJWTConfig()
	svc := NewTokenService(cfg)

	t.Run("ValidToken", func(t *testing.T) {
		signed := mintToken(t, cfg, 42, time.Now().Add(time.Hour))

		claims, err := svc.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.BrandID)
		assert.Equal(t, "tok-1", claims.TokenID)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		signed := mintToken(t, cfg, 42, time.Now().Add(-time.Hour))

		_, err := svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("WrongSignature", func(t *testing.T) {
		other := testJWTConfig()
		other.SecretKey = "another-secret-key-also-32-chars-xx"
		signed := mintToken(t, other, 42, time.Now().Add(time.Hour))

		_, err := svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("MissingBrandID", func(t *testing.T) {
		signed := mintToken(t, cfg, 0, time.Now().Add(time.Hour))

		_, err := svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := testJWTConfig()
		other.Issuer = "someone-else"
		signed := mintToken(t, other, 42, time.Now().Add(time.Hour))

		_, err := svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
