package api

import (
	"net/http"

	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MatchHandler 比赛查询接口
type MatchHandler struct {
	matchService *service.MatchService
	logger       *logrus.Logger
}

func NewMatchHandler(matchService *service.MatchService, logger *logrus.Logger) *MatchHandler {
	return &MatchHandler{matchService: matchService, logger: logger}
}

// ListMatches 比赛列表
// GET /api/matches?status=upcoming|finished|all&team=betis
func (h *MatchHandler) ListMatches(c *gin.Context) {
	list, err := h.matchService.List(c.Request.Context(), c.DefaultQuery("status", "all"), c.Query("team"))
	if err != nil {
		respondError(c, h.logger, "ListMatches", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetMatch GET /api/matches/:id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.logger, "GetMatch", err)
		return
	}
	m, err := h.matchService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "GetMatch", err)
		return
	}
	c.JSON(http.StatusOK, m)
}
