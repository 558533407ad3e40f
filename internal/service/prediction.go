package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"

	"github.com/sirupsen/logrus"
)

// PredictionRequest 提交/修改预测；半场比分缺省为 0-0
type PredictionRequest struct {
	UserID            string `json:"user_id"`
	MatchID           uint64 `json:"match_id"`
	HomeScore         *int   `json:"home_score"`
	AwayScore         *int   `json:"away_score"`
	HomeScoreHalftime *int   `json:"home_score_halftime"`
	AwayScoreHalftime *int   `json:"away_score_halftime"`
}

func (r *PredictionRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return apperr.InvalidInput("user_id is required")
	}
	if r.MatchID == 0 {
		return apperr.InvalidInput("match_id is required")
	}
	if r.HomeScore == nil || r.AwayScore == nil {
		return apperr.InvalidInput("home_score and away_score are required")
	}
	fields := []struct {
		name string
		v    *int
	}{
		{"home_score", r.HomeScore},
		{"away_score", r.AwayScore},
		{"home_score_halftime", r.HomeScoreHalftime},
		{"away_score_halftime", r.AwayScoreHalftime},
	}
	for _, f := range fields {
		if f.v != nil && *f.v < 0 {
			return apperr.InvalidInput("%s must be a non-negative integer", f.name)
		}
	}
	return nil
}

// HistoryEntry 用户历史中的一条预测及其比赛
type HistoryEntry struct {
	Prediction *model.Prediction `json:"prediction"`
	Match      *model.Match      `json:"match"`
}

// PredictionService 预测的提交、撤回与查询
type PredictionService struct {
	store  repository.Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewPredictionService(store repository.Store, logger *logrus.Logger) *PredictionService {
	return &PredictionService{store: store, logger: logger, now: time.Now}
}

// SetClock 替换时钟，测试用
func (s *PredictionService) SetClock(now func() time.Time) { s.now = now }

// Upsert 开球前提交或修改预测。新预测归属创建时的活跃赛季，
// 该赛季行以共享锁读取，与并发的赛季结算互斥。
func (s *PredictionService) Upsert(ctx context.Context, req PredictionRequest) (*model.Prediction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var saved *model.Prediction
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, req.UserID); err != nil {
			return err
		}
		match, err := tx.Matches().GetByID(ctx, req.MatchID, repository.LockNone)
		if err != nil {
			return err
		}
		if match.Locked(s.now()) {
			return apperr.InvalidInput("predictions are closed for this match")
		}
		season, err := tx.Seasons().GetActive(ctx, repository.LockShare)
		if err != nil {
			return err
		}

		p := &model.Prediction{
			UserID:    req.UserID,
			MatchID:   req.MatchID,
			SeasonID:  season.ID,
			HomeScore: *req.HomeScore,
			AwayScore: *req.AwayScore,
		}
		if req.HomeScoreHalftime != nil {
			p.HomeScoreHalftime = *req.HomeScoreHalftime
		}
		if req.AwayScoreHalftime != nil {
			p.AwayScoreHalftime = *req.AwayScoreHalftime
		}
		if err := tx.Predictions().Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert prediction: %w", err)
		}
		saved = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":  saved.UserID,
		"match_id": saved.MatchID,
		"score":    fmt.Sprintf("%d-%d", saved.HomeScore, saved.AwayScore),
	}).Debug("预测已保存")
	return saved, nil
}

// Delete 撤回预测：只能撤回自己的，且须在开球前。他人的预测按不存在处理。
func (s *PredictionService) Delete(ctx context.Context, id uint64, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.InvalidInput("user_id is required")
	}
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		p, err := tx.Predictions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return apperr.NotFound("prediction %d not found", id)
		}
		match, err := tx.Matches().GetByID(ctx, p.MatchID, repository.LockNone)
		if err != nil {
			return err
		}
		if match.Locked(s.now()) {
			return apperr.InvalidInput("predictions are closed for this match")
		}
		return tx.Predictions().Delete(ctx, id)
	})
}

// List 按比赛、用户、赛季筛选，最新在前
func (s *PredictionService) List(ctx context.Context, filter repository.PredictionFilter) ([]*model.Prediction, error) {
	return s.store.Predictions().List(ctx, filter)
}

// History 用户的全部预测及对应比赛
func (s *PredictionService) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, err
	}
	preds, err := s.store.Predictions().List(ctx, repository.PredictionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(preds))
	if len(preds) == 0 {
		return entries, nil
	}

	ids := make([]uint64, 0, len(preds))
	for _, p := range preds {
		ids = append(ids, p.MatchID)
	}
	matches, err := s.store.Matches().List(ctx, repository.MatchFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*model.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	for _, p := range preds {
		entries = append(entries, HistoryEntry{Prediction: p, Match: byID[p.MatchID]})
	}
	return entries, nil
}
