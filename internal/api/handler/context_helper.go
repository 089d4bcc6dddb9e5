package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"swapslot/backend/pkg/response"
)

// Context keys written by middleware.JWTAuth
const (
	CtxUserID   = "user_id"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// MustGetUserID reads the caller id injected by JWTAuth.
// If it is missing a 401 is written and ok is false; the caller should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, "unauthenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, "unauthenticated")
		return "", false
	}
	return s, true
}

// tokenMeta jti and expiry of the current access token, zero values if absent
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString(CtxTokenJTI)
	exp := c.GetTime(CtxTokenExp)
	return jti, exp
}
