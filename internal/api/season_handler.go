package api

import (
	"net/http"

	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SeasonHandler 赛季查询与管理接口
type SeasonHandler struct {
	seasonService  *service.SeasonService
	scoringService *service.ScoringService
	logger         *logrus.Logger
}

func NewSeasonHandler(seasonService *service.SeasonService, scoringService *service.ScoringService, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{seasonService: seasonService, scoringService: scoringService, logger: logger}
}

// ListSeasons GET /api/seasons
func (h *SeasonHandler) ListSeasons(c *gin.Context) {
	list, err := h.seasonService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListSeasons", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CurrentSeason GET /api/seasons/current
func (h *SeasonHandler) CurrentSeason(c *gin.Context) {
	s, err := h.seasonService.Current(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "CurrentSeason", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type closeSeasonRequest struct {
	NewSeasonName string `json:"new_season_name"`
}

// CloseSeason 结算当前赛季并开启新赛季
// POST /api/admin/seasons/close {"new_season_name": "..."}
func (h *SeasonHandler) CloseSeason(c *gin.Context) {
	var req closeSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.seasonService.CloseAndOpen(c.Request.Context(), req.NewSeasonName)
	if err != nil {
		respondError(c, h.logger, "CloseSeason", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RescoreMatch 手动重新计分
// POST /api/admin/matches/:id/rescore
func (h *SeasonHandler) RescoreMatch(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, "RescoreMatch", err)
		return
	}
	n, err := h.scoringService.RescoreMatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "RescoreMatch", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "predictions": n})
}
