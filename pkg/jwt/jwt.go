package jwt

import (
	"errors"
	"fmt"
	"time"

	"clinic-booking/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is set on every token and required when validating.
const Issuer = "clinic-booking"

var ErrInvalidToken = errors.New("invalid token")

type TokenType string

const (
	AccessToken TokenType = "access"
)

// Claims identify an admin session. TokenID is the key under which the
// session is stored in Redis.
type Claims struct {
	AdminID   int       `json:"admin_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
	TokenID   string    `json:"token_id"`
	jwt.RegisteredClaims
}

type JWTService struct {
	config config.JWTConfig
	parser *jwt.Parser
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken returns the signed token and its token id.
func (s *JWTService) GenerateAccessToken(adminID int, username, role string) (string, string, error) {
	tokenID := uuid.New().String()
	now := time.Now()
	claims := Claims{
		AdminID:   adminID,
		Username:  username,
		Role:      role,
		TokenType: AccessToken,
		TokenID:   tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   username,
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, tokenID, nil
}

// ValidateToken checks signature, issuer and expiry. Every failure wraps
// ErrInvalidToken.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := s.parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}

	return claims, nil
}

func (s *JWTService) GetAccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

// TokenStoreKey is the Redis key marking an access token as live.
func TokenStoreKey(adminID int, tokenID string) string {
	return fmt.Sprintf("access_token:%d:%s", adminID, tokenID)
}
