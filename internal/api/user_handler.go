package api

import (
	"net/http"

	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService       *service.UserService
	predictionService *service.PredictionService
	logger            *logrus.Logger
}

func NewUserHandler(userService *service.UserService, predictionService *service.PredictionService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, predictionService: predictionService, logger: logger}
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	AvatarURL   string `json:"avatar_url"`
}

// CreateUser POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.userService.Create(c.Request.Context(), req.Email, req.DisplayName, req.AvatarURL)
	if err != nil {
		respondError(c, h.logger, "CreateUser", err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// ListUsers GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	list, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// History 用户的全部预测及比赛
// GET /api/users/:id/history
func (h *UserHandler) History(c *gin.Context) {
	entries, err := h.predictionService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "History", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
