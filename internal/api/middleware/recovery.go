package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"swapslot/backend/pkg/response"
)

// Recovery turns a panic into the generic 500 envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Stack("stack"),
		)
		response.InternalError(c)
		c.Abort()
	})
}
