package api

import (
	"net/http"

	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PredictionHandler 预测接口
type PredictionHandler struct {
	predictionService *service.PredictionService
	logger            *logrus.Logger
}

func NewPredictionHandler(predictionService *service.PredictionService, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService, logger: logger}
}

// ListPredictions GET /api/predictions?match_id=&user_id=&season_id=
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	matchID, err := queryID(c, "match_id")
	if err != nil {
		respondError(c, h.logger, "ListPredictions", err)
		return
	}
	seasonID, err := queryID(c, "season_id")
	if err != nil {
		respondError(c, h.logger, "ListPredictions", err)
		return
	}
	list, err := h.predictionService.List(c.Request.Context(), repository.PredictionFilter{
		UserID:   c.Query("user_id"),
		MatchID:  matchID,
		SeasonID: seasonID,
	})
	if err != nil {
		respondError(c, h.logger, "ListPredictions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpsertPrediction 开球前提交或修改预测
// POST /api/predictions {"user_id","match_id","home_score","away_score","home_score_halftime","away_score_halftime"}
func (h *PredictionHandler) UpsertPrediction(c *gin.Context) {
	var req service.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.predictionService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "UpsertPrediction", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePrediction DELETE /api/predictions/:id?user_id=
func (h *PredictionHandler) DeletePrediction(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, "DeletePrediction", err)
		return
	}
	if err := h.predictionService.Delete(c.Request.Context(), id, c.Query("user_id")); err != nil {
		respondError(c, h.logger, "DeletePrediction", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
