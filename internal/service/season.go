package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/metrics"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/standings"

	"github.com/sirupsen/logrus"
)

// SeasonService 赛季管理：查询、首个赛季初始化、结算并开启新赛季
type SeasonService struct {
	store   repository.Store
	cache   cache.StandingsCache
	metrics *metrics.Recorder
	logger  *logrus.Logger
	now     func() time.Time
}

func NewSeasonService(store repository.Store, standingsCache cache.StandingsCache, recorder *metrics.Recorder, logger *logrus.Logger) *SeasonService {
	return &SeasonService{
		store:   store,
		cache:   standingsCache,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock 替换时钟，测试用
func (s *SeasonService) SetClock(now func() time.Time) { s.now = now }

// Current 当前活跃赛季
func (s *SeasonService) Current(ctx context.Context) (*model.Season, error) {
	return s.store.Seasons().GetActive(ctx, repository.LockNone)
}

// List 全部赛季，最新在前
func (s *SeasonService) List(ctx context.Context) ([]*model.Season, error) {
	return s.store.Seasons().List(ctx)
}

func (s *SeasonService) Get(ctx context.Context, id uint64) (*model.Season, error) {
	return s.store.Seasons().GetByID(ctx, id)
}

// EnsureInitialSeason 没有活跃赛季时创建一个，返回活跃赛季及是否新建
func (s *SeasonService) EnsureInitialSeason(ctx context.Context, name string) (*model.Season, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, apperr.InvalidInput("season name is required")
	}
	var (
		season  *model.Season
		created bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		active, err := tx.Seasons().GetActive(ctx, repository.LockUpdate)
		if err == nil {
			season = active
			return nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		season = &model.Season{Name: name, StartDate: s.now().UTC(), IsActive: true}
		created = true
		return tx.Seasons().Create(ctx, season)
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure initial season: %w", err)
	}
	if created {
		s.logger.WithFields(logrus.Fields{"season_id": season.ID, "name": season.Name}).Info("已创建初始赛季")
	}
	return season, created, nil
}

// CloseResult 赛季结算结果；没有任何用户得分时 WinnerUserID 为空
type CloseResult struct {
	ClosedSeasonID   uint64               `json:"closed_season_id"`
	ClosedSeasonName string               `json:"closed_season_name"`
	WinnerUserID     *string              `json:"winner_user_id"`
	WinnerPoints     int                  `json:"winner_points"`
	NewSeasonID      uint64               `json:"new_season_id"`
	NewSeasonName    string               `json:"new_season_name"`
	Standings        []standings.Standing `json:"final_standings"`
}

// CloseAndOpen 在一个事务内结算活跃赛季并开启新赛季。
// 名称为空在任何写入前返回 InvalidInput；无活跃赛季返回 NotFound；
// 其余失败整体回滚并返回 TransactionFailure。
func (s *SeasonService) CloseAndOpen(ctx context.Context, newName string) (*CloseResult, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperr.InvalidInput("new season name is required")
	}

	var result *CloseResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		active, err := tx.Seasons().GetActive(ctx, repository.LockUpdate)
		if err != nil {
			return err
		}

		final, err := computeStandings(ctx, tx, active.ID)
		if err != nil {
			return err
		}
		snapshot, err := json.Marshal(final)
		if err != nil {
			return fmt.Errorf("marshal final standings: %w", err)
		}

		now := s.now().UTC()
		result = &CloseResult{
			ClosedSeasonID:   active.ID,
			ClosedSeasonName: active.Name,
			Standings:        final,
		}
		active.EndDate = &now
		active.IsActive = false
		active.FinalStandings = snapshot
		if leader, ok := standings.Leader(final); ok {
			userID, points := leader.UserID, leader.TotalPoints
			active.WinnerUserID = &userID
			active.WinnerPoints = &points
			result.WinnerUserID = &userID
			result.WinnerPoints = points
		}
		if err := tx.Seasons().Save(ctx, active); err != nil {
			return fmt.Errorf("close season %d: %w", active.ID, err)
		}

		next := &model.Season{Name: newName, StartDate: now, IsActive: true}
		if err := tx.Seasons().Create(ctx, next); err != nil {
			return fmt.Errorf("open season %q: %w", newName, err)
		}
		result.NewSeasonID = next.ID
		result.NewSeasonName = next.Name
		return nil
	})
	s.metrics.RecordSeasonClose(err)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		s.logger.WithError(err).Error("赛季结算失败，已回滚")
		return nil, apperr.TransactionFailure("season close-and-open was not applied", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WithError(err).Warn("排行榜缓存失效失败")
		}
	}
	entry := s.logger.WithFields(logrus.Fields{
		"closed_season_id": result.ClosedSeasonID,
		"new_season_id":    result.NewSeasonID,
	})
	if result.WinnerUserID != nil {
		entry = entry.WithFields(logrus.Fields{"winner": *result.WinnerUserID, "points": result.WinnerPoints})
	}
	entry.Info("赛季结算完成")
	return result, nil
}
