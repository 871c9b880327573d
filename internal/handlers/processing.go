// internal/handlers/processing.go
package handlers

import (
	"net/http"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/service"
	"cardio-wsi-back/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalysisResponse struct {
	State  models.Snapshot        `json:"state"`
	Groups []models.CategoryGroup `json:"groups"`
}

type LogQuery struct {
	Since int `form:"since" binding:"min=0"`
}

type LogResponse struct {
	Entries []models.LogEntry `json:"entries"`
	Next    int               `json:"next"`
}

type PredictionURI struct {
	Index int `uri:"index" binding:"min=0"`
}

type PredictionResponse struct {
	Index      int                     `json:"index"`
	Prediction models.PredictionRecord `json:"prediction"`
	Category   models.Category         `json:"category"`
}

func newAnalysisResponse(snap models.Snapshot) AnalysisResponse {
	return AnalysisResponse{
		State:  snap,
		Groups: models.GroupByCategory(snap.Predictions),
	}
}

func StartAnalysis(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Start(); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, newAnalysisResponse(svc.Snapshot()))
	}
}

func RestartAnalysis(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.Restart(c.Request.Context())
		c.JSON(http.StatusOK, newAnalysisResponse(svc.Snapshot()))
	}
}

func GetAnalysis(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newAnalysisResponse(svc.Snapshot()))
	}
}

// GetLog returns log entries from the since index on. After a restart the
// log shrinks, so clients seeing next < since should reload from zero.
func GetLog(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q LogQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			response.ValidationError(c, "Invalid since parameter", err.Error())
			return
		}

		log := svc.Snapshot().Log
		entries := []models.LogEntry{}
		if q.Since < len(log) {
			entries = log[q.Since:]
		}
		c.JSON(http.StatusOK, LogResponse{Entries: entries, Next: len(log)})
	}
}

func GetPrediction(svc *service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri PredictionURI
		if err := c.ShouldBindUri(&uri); err != nil {
			response.ValidationError(c, "Invalid prediction index", err.Error())
			return
		}

		rec, err := svc.Prediction(uri.Index)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := PredictionResponse{Index: uri.Index, Prediction: rec}
		for _, cat := range models.Categories {
			if cat.ID == rec.CategoryID {
				resp.Category = cat
				break
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}
