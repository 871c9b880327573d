// internal/handlers/history.go
package handlers

import (
	"context"
	"net/http"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/pkg/response"

	"github.com/gin-gonic/gin"
)

// HistoryReader is the read side of the run archive.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]models.AnalysisRun, error)
	Get(ctx context.Context, runID string) (*models.AnalysisRun, error)
}

type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

func GetHistory(history HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q HistoryQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			response.ValidationError(c, "Invalid limit parameter", err.Error())
			return
		}
		if q.Limit == 0 {
			q.Limit = 20
		}

		runs, err := history.List(c.Request.Context(), q.Limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func GetHistoryRun(history HistoryReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := history.Get(c.Request.Context(), c.Param("runID"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}
