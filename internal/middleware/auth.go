package middleware

import (
	"context"
	"lms_backend/internal/model"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker 由 AuthService 实现
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	return c.Query("token")
}

// authenticate 返回 nil 表示没有有效身份
func authenticate(c *gin.Context, secret string, revocations RevocationChecker) *util.Claims {
	tokenString := extractToken(c)
	if tokenString == "" {
		return nil
	}

	claims, err := util.ParseJWT(tokenString, secret)
	if err != nil {
		logger.Log.Debug("JWT parse failed", zap.Error(err))
		return nil
	}

	if revocations != nil {
		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Log.Error("Revocation lookup failed", zap.Error(err))
			return nil
		}
		if revoked {
			return nil
		}
	}
	return claims
}

// AuthMiddleware 没有有效 token 时返回 401
func AuthMiddleware(secret string, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := authenticate(c, secret, revocations)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		util.SetIdentity(c, claims)
		c.Next()
	}
}

// TryAuthMiddleware 有 token 就解析，没有也放行
func TryAuthMiddleware(secret string, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := authenticate(c, secret, revocations); claims != nil {
			util.SetIdentity(c, claims)
		}
		c.Next()
	}
}

// RoleMiddleware ADMIN 拥有所有权限，未知角色一律拒绝
func RoleMiddleware(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		identity := util.GetIdentity(c)
		if identity == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		var ok bool
		switch identity.Role {
		case model.RoleAdmin:
			ok = true
		case model.RoleTeacher, model.RoleUser:
			ok = allowed[identity.Role]
		default:
			ok = false
		}

		if !ok {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
