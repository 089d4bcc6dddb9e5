package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapslot/backend/pkg/response"
)

// BodyLimit caps request bodies at maxBytes. Declared oversize bodies are
// refused up front; the rest fail on read with *http.MaxBytesError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
