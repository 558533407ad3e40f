package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/scoring"

	"github.com/sirupsen/logrus"
)

// ReconcileStats 一批外部比赛的处理结果
type ReconcileStats struct {
	Total         int       `json:"total"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Unchanged     int       `json:"unchanged"`
	Errors        int       `json:"errors"`
	Rescored      int       `json:"rescored"`
	RescoreFailed int       `json:"rescore_failed"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReconcileService 把外部观测到的比赛并入本地 matches 表。
// 比赛结束或已结束比赛比分变化时，在同一次写入中置 rescore_pending，随后显式调用计分引擎；
// 计分失败时标记保留，由定时任务重试。
type ReconcileService struct {
	store       repository.Store
	scorer      *ScoringService
	metrics     *metrics.Recorder
	logger      *logrus.Logger
	defaultMode scoring.Mode
	cutoff      time.Time
	now         func() time.Time
}

// NewReconcileService defaultMode 为新比赛的计分制度；开球早于 legacyCutoff 的新比赛按 legacy 计分（零值表示不启用）
func NewReconcileService(
	store repository.Store,
	scorer *ScoringService,
	recorder *metrics.Recorder,
	logger *logrus.Logger,
	defaultMode scoring.Mode,
	legacyCutoff time.Time,
) *ReconcileService {
	return &ReconcileService{
		store:       store,
		scorer:      scorer,
		metrics:     recorder,
		logger:      logger,
		defaultMode: defaultMode,
		cutoff:      legacyCutoff,
		now:         time.Now,
	}
}

// SetClock 替换时钟，测试用
func (s *ReconcileService) SetClock(now func() time.Time) { s.now = now }

type reconcileOutcome int

const (
	outcomeUnchanged reconcileOutcome = iota
	outcomeCreated
	outcomeUpdated
)

// Reconcile 逐条处理；单条失败计入 Errors，不影响其余条目
func (s *ReconcileService) Reconcile(ctx context.Context, batch []model.ExternalMatch) (*ReconcileStats, error) {
	stats := &ReconcileStats{Total: len(batch)}
	for i := range batch {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ext := batch[i]
		entry := s.logger.WithField("external_id", ext.ExternalID)

		normalized, err := normalizeExternal(ext)
		if err != nil {
			stats.Errors++
			entry.WithError(err).Warn("跳过非法的外部比赛数据")
			continue
		}

		matchID, outcome, rescore, err := s.apply(ctx, normalized)
		if err != nil {
			stats.Errors++
			entry.WithError(err).Warn("写入比赛失败")
			continue
		}
		switch outcome {
		case outcomeCreated:
			stats.Created++
		case outcomeUpdated:
			stats.Updated++
		default:
			stats.Unchanged++
		}

		if !rescore {
			continue
		}
		if _, err := s.scorer.RescoreMatch(ctx, matchID); err != nil {
			stats.RescoreFailed++
			entry.WithError(err).WithField("match_id", matchID).Warn("同步后计分失败，等待定时重试")
			continue
		}
		stats.Rescored++
	}
	stats.Timestamp = s.now().UTC()

	s.metrics.RecordReconcile("created", stats.Created)
	s.metrics.RecordReconcile("updated", stats.Updated)
	s.metrics.RecordReconcile("unchanged", stats.Unchanged)
	s.metrics.RecordReconcile("error", stats.Errors)
	s.logger.Infof("比赛同步完成：新增 %d，更新 %d，无变化 %d，错误 %d，计分 %d，计分失败 %d",
		stats.Created, stats.Updated, stats.Unchanged, stats.Errors, stats.Rescored, stats.RescoreFailed)
	return stats, nil
}

// apply 在事务内插入或更新一场比赛，返回比赛ID、结果以及是否需要重新计分
func (s *ReconcileService) apply(ctx context.Context, ext model.ExternalMatch) (uint64, reconcileOutcome, bool, error) {
	var (
		id      uint64
		outcome reconcileOutcome
		rescore bool
	)
	payload, err := json.Marshal(ext)
	if err != nil {
		return 0, outcomeUnchanged, false, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Matches().GetByExternalID(ctx, ext.ExternalID)
		if apperr.Is(err, apperr.KindNotFound) {
			m := &model.Match{ExternalID: ext.ExternalID, ScoringMode: s.modeFor(ext.KickoffUTC)}
			copyExternal(m, ext)
			m.Payload = payload
			m.RescorePending = m.IsFinished()
			if err := tx.Matches().Create(ctx, m); err != nil {
				return err
			}
			id, outcome, rescore = m.ID, outcomeCreated, m.RescorePending
			return nil
		}
		if err != nil {
			return err
		}

		id = existing.ID
		if !externalChanged(existing, ext) {
			outcome = outcomeUnchanged
			return nil
		}
		wasFinished := existing.IsFinished()
		scoresChanged := !sameScores(existing, ext)
		copyExternal(existing, ext)
		existing.Payload = payload
		nowFinished := existing.IsFinished()
		if wasFinished != nowFinished || (nowFinished && scoresChanged) {
			existing.RescorePending = true
		}
		if err := tx.Matches().Save(ctx, existing); err != nil {
			return err
		}
		outcome, rescore = outcomeUpdated, existing.RescorePending
		return nil
	})
	return id, outcome, rescore, err
}

func (s *ReconcileService) modeFor(kickoff time.Time) scoring.Mode {
	if !s.cutoff.IsZero() && kickoff.Before(s.cutoff) {
		return scoring.ModeLegacy
	}
	if s.defaultMode == "" {
		return scoring.ModeTiered
	}
	return s.defaultMode
}

// normalizeExternal 校验并规整：未结束的比赛不保留比分，半场比分缺一按缺失处理
func normalizeExternal(ext model.ExternalMatch) (model.ExternalMatch, error) {
	if ext.ExternalID <= 0 {
		return ext, apperr.InvalidInput("external_id must be positive")
	}
	ext.HomeTeam = strings.TrimSpace(ext.HomeTeam)
	ext.AwayTeam = strings.TrimSpace(ext.AwayTeam)
	if ext.HomeTeam == "" || ext.AwayTeam == "" {
		return ext, apperr.InvalidInput("home_team and away_team are required")
	}
	if ext.KickoffUTC.IsZero() {
		return ext, apperr.InvalidInput("kickoff_utc is required")
	}
	ext.KickoffUTC = ext.KickoffUTC.UTC()
	status := model.MatchStatus(strings.ToUpper(strings.TrimSpace(ext.Status)))
	if !status.Valid() {
		return ext, apperr.InvalidInput("unknown status %q", ext.Status)
	}
	ext.Status = string(status)

	for _, v := range []*int{ext.HomeScore, ext.AwayScore, ext.HomeScoreHalftime, ext.AwayScoreHalftime} {
		if v != nil && *v < 0 {
			return ext, apperr.InvalidInput("scores must be non-negative")
		}
	}
	if status != model.MatchFinished {
		ext.HomeScore, ext.AwayScore = nil, nil
		ext.HomeScoreHalftime, ext.AwayScoreHalftime = nil, nil
		return ext, nil
	}
	if ext.HomeScore == nil || ext.AwayScore == nil {
		return ext, apperr.InvalidInput("finished match requires a full-time score")
	}
	if ext.HomeScoreHalftime == nil || ext.AwayScoreHalftime == nil {
		ext.HomeScoreHalftime, ext.AwayScoreHalftime = nil, nil
	}
	return ext, nil
}

func copyExternal(m *model.Match, ext model.ExternalMatch) {
	m.Competition = ext.Competition
	m.Season = ext.Season
	m.HomeTeam = ext.HomeTeam
	m.AwayTeam = ext.AwayTeam
	m.KickoffUTC = ext.KickoffUTC
	m.Venue = ext.Venue
	m.Status = model.MatchStatus(ext.Status)
	m.HomeScore = ext.HomeScore
	m.AwayScore = ext.AwayScore
	m.HomeScoreHalftime = ext.HomeScoreHalftime
	m.AwayScoreHalftime = ext.AwayScoreHalftime
}

func externalChanged(m *model.Match, ext model.ExternalMatch) bool {
	return string(m.Status) != ext.Status ||
		!sameScores(m, ext) ||
		!m.KickoffUTC.Equal(ext.KickoffUTC) ||
		m.Venue != ext.Venue ||
		m.HomeTeam != ext.HomeTeam ||
		m.AwayTeam != ext.AwayTeam ||
		m.Competition != ext.Competition ||
		m.Season != ext.Season
}

func sameScores(m *model.Match, ext model.ExternalMatch) bool {
	return sameInt(m.HomeScore, ext.HomeScore) &&
		sameInt(m.AwayScore, ext.AwayScore) &&
		sameInt(m.HomeScoreHalftime, ext.HomeScoreHalftime) &&
		sameInt(m.AwayScoreHalftime, ext.AwayScoreHalftime)
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
