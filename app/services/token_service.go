package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/veritag/veritag/config"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// BrandClaims is the validated identity attached to brand API requests.
// Tokens are minted by the accounts subsystem; this service only verifies.
type BrandClaims struct {
	BrandID uint   `json:"brand_id"`
	TokenID string `json:"token_id"`
	jwt.RegisteredClaims
}

// TokenService validates access tokens issued for the brand API
type TokenService interface {
	ValidateToken(tokenString string) (*BrandClaims, error)
}

type JWTTokenService struct {
	config *config.JWTConfig
}

func NewTokenService(cfg *config.JWTConfig) TokenService {
	return &JWTTokenService{config: cfg}
}

// ValidateToken parses and verifies a JWT access token
func (s *JWTTokenService) ValidateToken(tokenString string) (*BrandClaims, error) {
	claims := &BrandClaims{}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if s.config.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(s.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.BrandID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
