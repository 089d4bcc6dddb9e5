package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TypeSuccess type of every 2xx envelope
const TypeSuccess = "success"

// Response uniform envelope. Type is "success" or the machine-readable error kind.
type Response struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ── success ──

// OK 200
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Type:    TypeSuccess,
		Message: message,
		Data:    data,
	})
}

// Created 201
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Type:    TypeSuccess,
		Message: message,
		Data:    data,
	})
}

// ── failure ──

// Error generic failure envelope
func Error(c *gin.Context, httpStatus int, kind, message string) {
	c.JSON(httpStatus, Response{
		Type:    kind,
		Message: message,
	})
}

// ErrorWithFields failure with field-level messages
func ErrorWithFields(c *gin.Context, httpStatus int, kind, message string, fields map[string]string) {
	c.JSON(httpStatus, Response{
		Type:    kind,
		Message: message,
		Errors:  fields,
	})
}

// Unauthorized 401
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "authentication_error", message)
}

// InternalError 500, never carries internal details
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal_error", "internal server error")
}
