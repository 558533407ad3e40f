package api

import (
	"errors"
	"net/http"
	"strconv"

	"PredictionLeague/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusOf 业务错误类别 → HTTP 状态码
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTransactionFailure, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError 输出 {"error": ...}；非业务错误只记录日志，不向调用方暴露细节
func respondError(c *gin.Context, logger *logrus.Logger, op string, err error) {
	status := statusOf(err)
	var ae *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &ae) {
		logger.WithError(err).WithField("path", c.FullPath()).Error(op + " failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	if status == http.StatusConflict {
		logger.WithError(err).Warn(op + " failed")
	}
	c.JSON(status, gin.H{"error": ae.Message, "kind": ae.Kind})
}

func parseID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidInput("invalid %s %q", name, c.Param(name))
	}
	return id, nil
}

// queryID 可选的数字查询参数，缺省为 0
func queryID(c *gin.Context, name string) (uint64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperr.InvalidInput("invalid %s %q", name, raw)
	}
	return id, nil
}
