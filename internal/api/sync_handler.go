package api

import (
	"fmt"
	"net/http"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SyncHandler struct {
	reconcileService *service.ReconcileService
	logger           *logrus.Logger
}

func NewSyncHandler(reconcileService *service.ReconcileService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		reconcileService: reconcileService,
		logger:           logger,
	}
}

type syncRequest struct {
	Matches []model.ExternalMatch `json:"matches" binding:"required"`
}

// SyncMatches 接收外部数据源推送的一批比赛并入库；比赛结束时触发计分
// POST /api/sync/matches  Authorization: Bearer <sync secret>
func (h *SyncHandler) SyncMatches(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.reconcileService.Reconcile(c.Request.Context(), req.Matches)
	if err != nil {
		h.logger.Errorf("比赛同步中断: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"stats":   stats,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("同步完成：%d 场比赛", stats.Total),
		"stats":   stats,
	})
}

// Describe 接口说明
// GET /api/sync
func (h *SyncHandler) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"endpoint":    "/api/sync/matches",
		"method":      http.MethodPost,
		"auth":        "Bearer token required",
		"description": "Reconciles a batch of externally observed matches and rescores finished ones",
	})
}
