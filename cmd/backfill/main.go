// backfill 为历史比赛补写 scoring_mode：开球早于截止时间的比赛标记为 legacy 并重新计分。
//
//	go run ./cmd/backfill --cutoff 2025-08-01 --dry-run
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/config"
	"PredictionLeague/internal/database"
	"PredictionLeague/internal/logger"
	"PredictionLeague/internal/service"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("backfill", pflag.ExitOnError)
	configDir := flags.String("config", "./config", "config.yaml 所在目录")
	flags.String("cutoff", "", "旧计分制度截止时间（RFC3339 或 2006-01-02），缺省取 scoring.legacy_cutoff")
	dryRun := flags.Bool("dry-run", false, "只输出候选比赛，不写库")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if f := flags.Lookup("cutoff"); f.Changed {
		if err := v.BindPFlag("scoring.legacy_cutoff", f); err != nil {
			log.Fatalf("绑定参数失败: %v", err)
		}
	}
	cfg, err := config.Load(v, *configDir)
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	logrusLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, "stderr")
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}

	cutoff, _ := cfg.Scoring.Cutoff()
	store, closeDB, err := database.Open(&cfg.Database, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("初始化存储失败: %v", err)
	}
	defer closeDB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 启用 Redis 时重新计分会让服务进程的排行榜缓存失效
	var standingsCache cache.StandingsCache = cache.NewMemory(cfg.Redis.TTL)
	if cfg.Redis.Enabled && !*dryRun {
		rc, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logrusLogger.Fatalf("连接Redis失败: %v", err)
		}
		defer rc.Close()
		standingsCache = rc
	}
	scorer := service.NewScoringService(store, standingsCache, nil, logrusLogger,
		cfg.Sync.RescoreWorkers, cfg.Sync.RescoreBatch)

	out := struct {
		Backfill *service.BackfillReport `json:"backfill"`
		Rescore  *service.RescoreReport  `json:"rescore,omitempty"`
	}{}
	out.Backfill, err = scorer.BackfillScoringMode(ctx, cutoff, *dryRun)
	if err != nil {
		logrusLogger.Fatalf("回填失败: %v", err)
	}
	if !*dryRun && out.Backfill.Tagged > 0 {
		if out.Rescore, err = scorer.RescorePending(ctx); err != nil {
			logrusLogger.Fatalf("重新计分失败: %v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logrusLogger.Fatalf("输出结果失败: %v", err)
	}
}
