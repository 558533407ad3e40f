package scheduler

import (
	"context"

	"PredictionLeague/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Rescorer 重试带 rescore_pending 标记的比赛
type Rescorer interface {
	RescorePending(ctx context.Context) (*service.RescoreReport, error)
}

// RescoreScheduler 定时重试同步后计分失败的比赛；上一轮未结束时跳过本轮
type RescoreScheduler struct {
	cron     *cron.Cron
	rescorer Rescorer
	spec     string
	logger   *logrus.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewRescoreScheduler spec 为含秒的 cron 表达式，如 "0 */5 * * * *"
func NewRescoreScheduler(rescorer Rescorer, spec string, logger *logrus.Logger) *RescoreScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &RescoreScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		rescorer: rescorer,
		spec:     spec,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *RescoreScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(s.ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithField("cron", s.spec).Info("重新计分定时任务已启动")
	return nil
}

// Stop 取消进行中的任务并等待其退出
func (s *RescoreScheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("重新计分定时任务已停止")
}

// RunOnce 执行一轮重试，供定时任务与手动触发共用
func (s *RescoreScheduler) RunOnce(ctx context.Context) {
	report, err := s.rescorer.RescorePending(ctx)
	if err != nil {
		s.logger.WithError(err).Error("重新计分任务失败")
		return
	}
	if report.Pending > 0 {
		s.logger.WithFields(logrus.Fields{
			"pending":  report.Pending,
			"rescored": report.Rescored,
			"failed":   report.Failed,
		}).Info("重新计分任务完成")
	}
}
