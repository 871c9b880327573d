// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps domain error kinds onto the JSON error envelope.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrEmptySelection):
		response.Error(c, http.StatusBadRequest, response.CodeEmptySelection, "No files selected", nil)
	case errors.Is(err, models.ErrInvalidInput):
		response.ValidationError(c, err.Error(), nil)
	case errors.Is(err, models.ErrAlreadyRunning):
		response.Error(c, http.StatusConflict, response.CodeAlreadyRunning, "Analysis is already running", nil)
	case errors.Is(err, models.ErrInvalidState):
		response.Error(c, http.StatusConflict, response.CodeInvalidState, err.Error(), nil)
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		response.ServiceError(c, "Internal server error")
	}
}
