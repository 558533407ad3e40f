package api

import (
	"net/http"

	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StandingHandler struct {
	standingService *service.StandingService
	logger          *logrus.Logger
}

func NewStandingHandler(standingService *service.StandingService, logger *logrus.Logger) *StandingHandler {
	return &StandingHandler{standingService: standingService, logger: logger}
}

// GetStandings 排行榜；scope 缺省为当前赛季
// GET /api/standings?scope=all-time|<season_id>
func (h *StandingHandler) GetStandings(c *gin.Context) {
	raw := c.Query("scope")
	scope, err := service.ParseScope(raw)
	if err != nil {
		respondError(c, h.logger, "GetStandings", err)
		return
	}
	list, err := h.standingService.Standings(c.Request.Context(), scope)
	if err != nil {
		respondError(c, h.logger, "GetStandings", err)
		return
	}
	if raw == "" {
		raw = "current"
	}
	c.JSON(http.StatusOK, gin.H{"scope": raw, "standings": list})
}
