package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string            `json:"error_code"`
	Kind    Kind              `json:"kind,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidArgument, KindPastDate:
		return http.StatusBadRequest
	case KindCutoff:
		return http.StatusUnprocessableEntity
	case KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// Respond renders err. Anything that is not a BusinessError is reported as
// an opaque internal error.
func Respond(c *gin.Context, err error) {
	be, ok := As(err)
	if !ok {
		Internal(c, "internal_error", "unexpected error")
		return
	}

	message := be.Message
	if message == "" {
		message = be.Code
	}

	c.JSON(StatusFor(be.Kind), HTTPError{
		Code:    be.Code,
		Kind:    be.Kind,
		Message: message,
		Details: be.Details,
	})
}
