package api

import (
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services 路由依赖的业务服务
type Services struct {
	Matches     *service.MatchService
	Predictions *service.PredictionService
	Users       *service.UserService
	Standings   *service.StandingService
	Seasons     *service.SeasonService
	Scoring     *service.ScoringService
	Reconcile   *service.ReconcileService
}

// Options 鉴权与监控配置
type Options struct {
	AdminToken  string
	SyncSecret  string
	Metrics     *metrics.Recorder
	MetricsPath string
}

// Register 注册全部 HTTP 路由
func Register(r *gin.Engine, svc Services, opts Options, logger *logrus.Logger) {
	r.Use(RequestID())
	if opts.Metrics != nil {
		r.Use(Metrics(opts.Metrics))
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	matchHandler := NewMatchHandler(svc.Matches, logger)
	predictionHandler := NewPredictionHandler(svc.Predictions, logger)
	userHandler := NewUserHandler(svc.Users, svc.Predictions, logger)
	standingHandler := NewStandingHandler(svc.Standings, logger)
	seasonHandler := NewSeasonHandler(svc.Seasons, svc.Scoring, logger)
	syncHandler := NewSyncHandler(svc.Reconcile, logger)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/matches", matchHandler.ListMatches)
		apiGroup.GET("/matches/:id", matchHandler.GetMatch)

		apiGroup.GET("/predictions", predictionHandler.ListPredictions)
		apiGroup.POST("/predictions", predictionHandler.UpsertPrediction)
		apiGroup.DELETE("/predictions/:id", predictionHandler.DeletePrediction)

		apiGroup.GET("/users", userHandler.ListUsers)
		apiGroup.POST("/users", userHandler.CreateUser)
		apiGroup.GET("/users/:id/history", userHandler.History)

		apiGroup.GET("/standings", standingHandler.GetStandings)

		apiGroup.GET("/seasons", seasonHandler.ListSeasons)
		apiGroup.GET("/seasons/current", seasonHandler.CurrentSeason)

		apiGroup.GET("/sync", syncHandler.Describe)
		apiGroup.POST("/sync/matches", BearerAuth(opts.SyncSecret, logger), syncHandler.SyncMatches)
	}

	admin := r.Group("/api/admin", BearerAuth(opts.AdminToken, logger))
	{
		admin.POST("/seasons/close", seasonHandler.CloseSeason)
		admin.POST("/matches/:id/rescore", seasonHandler.RescoreMatch)
	}
}
