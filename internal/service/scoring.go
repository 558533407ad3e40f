package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/scoring"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ScoringService 计分引擎：把比赛结果写入该比赛所有预测的积分字段
type ScoringService struct {
	store   repository.Store
	cache   cache.StandingsCache
	metrics *metrics.Recorder
	logger  *logrus.Logger
	workers int
	batch   int
	now     func() time.Time
}

// NewScoringService 创建计分服务；workers/batch 控制 RescorePending 的并发与单轮数量
func NewScoringService(
	store repository.Store,
	standingsCache cache.StandingsCache,
	recorder *metrics.Recorder,
	logger *logrus.Logger,
	workers, batch int,
) *ScoringService {
	if workers <= 0 {
		workers = 1
	}
	return &ScoringService{
		store:   store,
		cache:   standingsCache,
		metrics: recorder,
		logger:  logger,
		workers: workers,
		batch:   batch,
		now:     time.Now,
	}
}

// SetClock 替换时钟，测试用
func (s *ScoringService) SetClock(now func() time.Time) { s.now = now }

// RescoreMatch 在一个事务内重算比赛的全部预测并清除 rescore_pending，返回写入行数。
// 比赛已结束则写入四项得分与 scored_at，否则清零；重复调用结果相同。
func (s *ScoringService) RescoreMatch(ctx context.Context, matchID uint64) (int, error) {
	rows := 0
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// 锁住比赛行：并发同步写入的 rescore_pending 不会被本次清除覆盖
		match, err := tx.Matches().GetByID(ctx, matchID, repository.LockUpdate)
		if err != nil {
			return err
		}
		preds, err := tx.Predictions().List(ctx, repository.PredictionFilter{MatchID: matchID})
		if err != nil {
			return fmt.Errorf("list predictions: %w", err)
		}

		result, finished := match.Result()
		scoredAt := s.now().UTC()
		for _, p := range preds {
			var (
				b  scoring.Breakdown
				at *time.Time
			)
			if finished {
				b, err = scoring.Score(match.ScoringMode, p.Input(), result)
				if err != nil {
					return fmt.Errorf("score prediction %d: %w", p.ID, err)
				}
				at = &scoredAt
			}
			if err := tx.Predictions().UpdatePoints(ctx, p.ID, b, at); err != nil {
				return fmt.Errorf("update points for prediction %d: %w", p.ID, err)
			}
			rows++
		}
		return tx.Matches().SetRescorePending(ctx, matchID, false)
	})
	s.metrics.RecordRescore(rows, err)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"match_id": matchID, "predictions": rows}).Debug("比赛重新计分完成")
	return rows, nil
}

// RescoreReport 一轮待计分重试的结果
type RescoreReport struct {
	Pending  int `json:"pending"`
	Rescored int `json:"rescored"`
	Failed   int `json:"failed"`
	Written  int `json:"predictions_written"`
}

// RescorePending 并发重试所有带 rescore_pending 标记的比赛；单场失败只记录，标记保留到下一轮
func (s *ScoringService) RescorePending(ctx context.Context) (*RescoreReport, error) {
	matches, err := s.store.Matches().ListRescorePending(ctx, s.batch)
	if err != nil {
		return nil, fmt.Errorf("ListRescorePending: %w", err)
	}
	s.metrics.SetPendingRescore(len(matches))
	report := &RescoreReport{Pending: len(matches)}
	if len(matches) == 0 {
		return report, nil
	}

	var rescored, failed, written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, m := range matches {
		m := m
		g.Go(func() error {
			n, err := s.RescoreMatch(gctx, m.ID)
			if err != nil {
				failed.Add(1)
				s.logger.WithError(err).WithField("match_id", m.ID).Warn("重新计分失败，保留待计分标记")
				return nil
			}
			rescored.Add(1)
			written.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	report.Rescored = int(rescored.Load())
	report.Failed = int(failed.Load())
	report.Written = int(written.Load())
	if report.Rescored > 0 || report.Failed > 0 {
		s.logger.Infof("待计分重试：成功 %d 场，失败 %d 场", report.Rescored, report.Failed)
	}
	return report, nil
}

// BackfillReport 计分制度回填结果
type BackfillReport struct {
	Cutoff time.Time `json:"cutoff"`
	DryRun bool      `json:"dry_run"`
	// LegacyCandidates 开球早于截止时间且尚未标记为 legacy 的比赛
	LegacyCandidates []uint64 `json:"legacy_candidates"`
	// Ambiguous 截止时间之后已结束但缺少半场比分的比赛，需要人工确认
	Ambiguous []uint64 `json:"ambiguous"`
	Tagged    int64    `json:"tagged"`
}

// BackfillScoringMode 一次性迁移：把截止时间前开球的比赛标记为 legacy 并置待计分。
// dryRun 时只生成报告，不写库。
func (s *ScoringService) BackfillScoringMode(ctx context.Context, cutoff time.Time, dryRun bool) (*BackfillReport, error) {
	if cutoff.IsZero() {
		return nil, apperr.InvalidInput("cutoff is required")
	}
	report := &BackfillReport{Cutoff: cutoff.UTC(), DryRun: dryRun}

	before, err := s.store.Matches().List(ctx, repository.MatchFilter{Before: &cutoff})
	if err != nil {
		return nil, fmt.Errorf("list matches before cutoff: %w", err)
	}
	for _, m := range before {
		if m.ScoringMode != scoring.ModeLegacy {
			report.LegacyCandidates = append(report.LegacyCandidates, m.ID)
		}
	}

	finished, err := s.store.Matches().List(ctx, repository.MatchFilter{Statuses: []model.MatchStatus{model.MatchFinished}})
	if err != nil {
		return nil, fmt.Errorf("list finished matches: %w", err)
	}
	for _, m := range finished {
		if m.KickoffUTC.Before(cutoff) {
			continue
		}
		if r, ok := m.Result(); ok && !r.HasHalftime() {
			report.Ambiguous = append(report.Ambiguous, m.ID)
		}
	}

	entry := s.logger.WithFields(logrus.Fields{
		"cutoff":     report.Cutoff.Format(time.RFC3339),
		"candidates": len(report.LegacyCandidates),
		"ambiguous":  len(report.Ambiguous),
		"dry_run":    dryRun,
	})
	if dryRun || len(report.LegacyCandidates) == 0 {
		entry.Info("计分制度回填：无写入")
		return report, nil
	}

	tagged, err := s.store.Matches().SetScoringMode(ctx, report.LegacyCandidates, scoring.ModeLegacy)
	if err != nil {
		return nil, fmt.Errorf("SetScoringMode: %w", err)
	}
	report.Tagged = tagged
	entry.WithField("tagged", tagged).Info("计分制度回填完成，已标记待重新计分")
	return report, nil
}

func (s *ScoringService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("排行榜缓存失效失败")
	}
}
