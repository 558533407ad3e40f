package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"PredictionLeague/internal/api"
	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/config"
	"PredictionLeague/internal/database"
	"PredictionLeague/internal/logger"
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/scheduler"
	"PredictionLeague/internal/scoring"
	"PredictionLeague/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logrusLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logrusLogger.Info("配置文件加载成功")

	// 3. 连接数据库并迁移表结构
	store, closeDB, err := database.Open(&cfg.Database, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化存储失败: %v", err)
	}
	defer closeDB()

	// 4. 排行榜缓存：启用 Redis 时多实例共享，否则进程内
	var standingsCache cache.StandingsCache = cache.NewMemory(cfg.Redis.TTL)
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logrusLogger.Fatalf("连接Redis失败: %v", err)
		}
		defer rc.Close()
		standingsCache = rc
		logrusLogger.Infof("Redis连接成功: %s", cfg.Redis.Addr)
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
	}

	// 5. 业务服务
	cutoff, _ := cfg.Scoring.Cutoff() // 已在 Validate 中校验
	scorer := service.NewScoringService(store, standingsCache, recorder, logrusLogger, cfg.Sync.RescoreWorkers, cfg.Sync.RescoreBatch)
	seasons := service.NewSeasonService(store, standingsCache, recorder, logrusLogger)
	svc := api.Services{
		Matches:     service.NewMatchService(store),
		Predictions: service.NewPredictionService(store, logrusLogger),
		Users:       service.NewUserService(store, logrusLogger),
		Standings:   service.NewStandingService(store, standingsCache, logrusLogger),
		Seasons:     seasons,
		Scoring:     scorer,
		Reconcile: service.NewReconcileService(store, scorer, recorder, logrusLogger,
			scoring.Mode(cfg.Scoring.DefaultMode), cutoff),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 6. 首次部署时创建活跃赛季
	if season, created, err := seasons.EnsureInitialSeason(ctx, cfg.Season.InitialName); err != nil {
		logrusLogger.Fatalf("初始化赛季失败: %v", err)
	} else if created {
		logrusLogger.Infof("已创建初始赛季: %s", season.Name)
	}

	// 7. 重新计分定时任务
	rescoreJob := scheduler.NewRescoreScheduler(scorer, cfg.Sync.RescoreCron, logrusLogger)
	if err := rescoreJob.Start(); err != nil {
		logrusLogger.Fatalf("启动重新计分任务失败: %v", err)
	}
	defer rescoreJob.Stop()

	// 8. 配置Gin运行模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	if cfg.Server.Pprof {
		// 注册ppof 方便调试和监测性能问题
		pprof.Register(r)
	}
	logrusLogger.Infof("Gin运行模式: %s", cfg.Server.Mode)
	if cfg.Server.AdminToken == "" {
		logrusLogger.Warn("未配置 ADMIN_TOKEN，管理接口将拒绝所有请求")
	}
	if cfg.Sync.Secret == "" {
		logrusLogger.Warn("未配置 SYNC_SECRET，同步接口将拒绝所有请求")
	}
	api.Register(r, svc, api.Options{
		AdminToken:  cfg.Server.AdminToken,
		SyncSecret:  cfg.Sync.Secret,
		Metrics:     recorder,
		MetricsPath: cfg.Metrics.Path,
	}, logrusLogger)

	// 9. 启动服务（从配置读取端口），收到退出信号后优雅关闭
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logrusLogger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrusLogger.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-ctx.Done()
	logrusLogger.Info("收到退出信号，正在关闭服务…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrusLogger.Errorf("关闭服务失败: %v", err)
	}
}
