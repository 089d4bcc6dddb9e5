package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"swapslot/backend/internal/api/handler"
	"swapslot/backend/pkg/jwt"
	"swapslot/backend/pkg/redis"
	"swapslot/backend/pkg/response"
)

// JWTAuth resolves the caller from Authorization: Bearer <token>.
// rdb may be nil, in which case revoked tokens are not checked.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			response.Unauthorized(c, msg)
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis unavailable: degrade open
				_ = c.Error(err)
			} else if revoked {
				response.Unauthorized(c, "token revoked")
				c.Abort()
				return
			}
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(handler.CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}
