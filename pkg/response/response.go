// pkg/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeEmptySelection  = "EMPTY_SELECTION"
	CodeInvalidState    = "INVALID_STATE"
	CodeAlreadyRunning  = "ALREADY_RUNNING"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeServiceError    = "SERVICE_ERROR"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Error(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func ValidationError(c *gin.Context, message string, details interface{}) {
	Error(c, http.StatusBadRequest, CodeValidationError, message, details)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeNotFound, message, nil)
}

func RateLimited(c *gin.Context) {
	Error(c, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

func PayloadTooLarge(c *gin.Context, limit int64) {
	Error(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Upload exceeds the size limit", gin.H{"limitBytes": limit})
}

func ServiceError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServiceError, message, nil)
}
