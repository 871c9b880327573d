// internal/handlers/uploads.go
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"cardio-wsi-back/internal/intake"
	"cardio-wsi-back/internal/service"
	"cardio-wsi-back/pkg/imaging"
	"cardio-wsi-back/pkg/response"

	"github.com/gin-gonic/gin"
)

const uploadField = "files"

// multipartPartOverhead covers the boundary and part headers of one file.
const multipartPartOverhead = 4 << 10

// UploadBodyLimit is the largest request body a full selection can need.
// Zero means unlimited.
func UploadBodyLimit(maxFiles int, maxFileSize int64) int64 {
	if maxFiles <= 0 || maxFileSize <= 0 {
		return 0
	}
	return int64(maxFiles) * (maxFileSize + multipartPartOverhead)
}

func UploadFiles(svc *service.AnalysisService, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		var headers []*multipart.FileHeader

		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		form, err := c.MultipartForm()
		var tooLarge *http.MaxBytesError
		switch {
		case err == nil:
			headers = form.File[uploadField]
		case errors.Is(err, http.ErrNotMultipart):
			// treated as an empty selection below
		case errors.As(err, &tooLarge):
			response.PayloadTooLarge(c, tooLarge.Limit)
			return
		default:
			response.ValidationError(c, "Failed to parse multipart form", err.Error())
			return
		}

		result, err := svc.Upload(c.Request.Context(), intake.FromFileHeaders(headers))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

type uploadFormats struct {
	Accept  string           `json:"accept"`
	Formats []imaging.Format `json:"formats"`
}

// GetUploadFormats returns the file picker filter. It is advisory only.
func GetUploadFormats(c *gin.Context) {
	c.JSON(http.StatusOK, uploadFormats{
		Accept:  imaging.AcceptAttribute(),
		Formats: imaging.AcceptedFormats,
	})
}

func GetFileContent(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, file, err := svc.OpenFile(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		defer rc.Close()

		c.DataFromReader(http.StatusOK, file.Size, file.ContentType, rc, map[string]string{
			"Content-Disposition": fmt.Sprintf("inline; filename=%q", file.Name),
		})
	}
}
