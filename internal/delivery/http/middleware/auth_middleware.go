package middleware

import (
	"context"
	"net/http"
	"strings"

	"clinic-booking/pkg/jwt"
	"clinic-booking/pkg/response"

	"github.com/redis/go-redis/v9"
)

type contextKey string

const (
	AdminIDKey  contextKey = "admin_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
	TokenIDKey  contextKey = "token_id"
)

type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	redisClient *redis.Client
}

func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		redisClient: redisClient,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// Check if token exists in Redis (not revoked)
		exists, err := m.redisClient.Exists(r.Context(), jwt.TokenStoreKey(claims.AdminID, claims.TokenID)).Result()
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if exists == 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), AdminIDKey, claims.AdminID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		ctx = context.WithValue(ctx, TokenIDKey, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdminIDFromContext extracts admin ID from context
func GetAdminIDFromContext(ctx context.Context) (int, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(int)
	return adminID, ok
}

// AdminIDPtr returns the authenticated admin id, or nil for anonymous requests.
func AdminIDPtr(ctx context.Context) *int {
	adminID, ok := GetAdminIDFromContext(ctx)
	if !ok {
		return nil
	}
	return &adminID
}

// GetUsernameFromContext extracts username from context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

// GetRoleFromContext extracts role from context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
