package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	pkgerrors "swapslot/backend/pkg/errors"
	"swapslot/backend/pkg/response"
)

const msgInvalidData = "the given data was invalid"

// validator reports json field names instead of Go struct field names
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			}
			return name
		})
	}
}

// handleError writes the envelope for err. Unexpected errors become a generic
// 500 and are attached to the gin context for the request logger.
func handleError(c *gin.Context, err error) {
	var bizErr *pkgerrors.Error
	if errors.As(err, &bizErr) {
		status := pkgerrors.StatusOf(bizErr)
		if len(bizErr.Fields) > 0 {
			response.ErrorWithFields(c, status, string(bizErr.Kind), bizErr.Message, bizErr.Fields)
			return
		}
		response.Error(c, status, string(bizErr.Kind), bizErr.Message)
		return
	}
	_ = c.Error(err)
	response.InternalError(c)
}

// bindJSON binds the body into obj; on failure it writes the error response
// and returns false.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}

	fields := make(map[string]string)

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	case errors.As(err, &typeErr):
		name := typeErr.Field
		if name == "" {
			name = "body"
		}
		fields[name] = fmt.Sprintf("must be of type %s", typeErr.Type.String())
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		fields["body"] = "request body must be valid JSON"
	default:
		// e.g. a malformed RFC 3339 timestamp
		fields["body"] = err.Error()
	}

	response.ErrorWithFields(c, http.StatusUnprocessableEntity, string(pkgerrors.KindValidation), msgInvalidData, fields)
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("the %s field is required", name)
	case "email":
		return fmt.Sprintf("the %s must be a valid email address", name)
	case "uuid":
		return fmt.Sprintf("the %s must be a valid UUID", name)
	case "min":
		return fmt.Sprintf("the %s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("the %s may not be greater than %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("the %s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("the %s is invalid", name)
	}
}
