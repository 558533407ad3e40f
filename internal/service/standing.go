package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/cache"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
	"PredictionLeague/internal/standings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ScopeAllTime 不限赛季的排行榜
const ScopeAllTime = "all-time"

// Scope 排行榜范围：全部或单个赛季；SeasonID 为 0 且非 AllTime 表示当前活跃赛季
type Scope struct {
	AllTime  bool
	SeasonID uint64
}

// ParseScope 解析 all-time / 赛季ID / 空（当前赛季）
func ParseScope(raw string) (Scope, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "current":
		return Scope{}, nil
	case ScopeAllTime:
		return Scope{AllTime: true}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return Scope{}, apperr.InvalidInput("invalid standings scope %q", raw)
	}
	return Scope{SeasonID: id}, nil
}

func (s Scope) key() string {
	if s.AllTime {
		return ScopeAllTime
	}
	return "season:" + strconv.FormatUint(s.SeasonID, 10)
}

// StandingService 排行榜查询：缓存 + singleflight 合并相同请求
type StandingService struct {
	store  repository.Store
	cache  cache.StandingsCache
	logger *logrus.Logger
	group  singleflight.Group
}

func NewStandingService(store repository.Store, standingsCache cache.StandingsCache, logger *logrus.Logger) *StandingService {
	return &StandingService{store: store, cache: standingsCache, logger: logger}
}

// Standings 返回指定范围的排行榜；赛季不存在返回 NotFound
func (s *StandingService) Standings(ctx context.Context, scope Scope) ([]standings.Standing, error) {
	if !scope.AllTime {
		var (
			season *model.Season
			err    error
		)
		if scope.SeasonID == 0 {
			season, err = s.store.Seasons().GetActive(ctx, repository.LockNone)
		} else {
			season, err = s.store.Seasons().GetByID(ctx, scope.SeasonID)
		}
		if err != nil {
			return nil, err
		}
		scope.SeasonID = season.ID
	}

	key := scope.key()
	// 先取代数再读库：计算期间若发生 Invalidate，结果不写入缓存
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			cacheable = false
			s.logger.WithError(err).WithField("scope", key).Warn("读取排行榜缓存代数失败")
		}
	}
	if cacheable {
		list, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("scope", key).Warn("读取排行榜缓存失败")
		} else if ok {
			return list, nil
		}
	}

	// 同一代数内合并相同请求；与发起者的取消解耦
	v, err, _ := s.group.Do(fmt.Sprintf("%d:%s", gen, key), func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		list, err := computeStandings(fctx, s.store, scope.SeasonID)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.cache.Set(fctx, key, gen, list); err != nil {
				s.logger.WithError(err).WithField("scope", key).Warn("写入排行榜缓存失败")
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]standings.Standing), nil
}

// computeStandings 读取范围内的预测与比赛并聚合；seasonID 为 0 表示全部。
// 赛季结算在事务内以事务 Store 调用。
func computeStandings(ctx context.Context, store repository.Store, seasonID uint64) ([]standings.Standing, error) {
	preds, err := store.Predictions().List(ctx, repository.PredictionFilter{SeasonID: seasonID})
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	if len(preds) == 0 {
		return []standings.Standing{}, nil
	}

	matchIDs := make([]uint64, 0, len(preds))
	userIDs := make([]string, 0)
	seenMatch := make(map[uint64]bool)
	seenUser := make(map[string]bool)
	for _, p := range preds {
		if !seenMatch[p.MatchID] {
			seenMatch[p.MatchID] = true
			matchIDs = append(matchIDs, p.MatchID)
		}
		if !seenUser[p.UserID] {
			seenUser[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
	}

	matches, err := store.Matches().List(ctx, repository.MatchFilter{IDs: matchIDs})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	byID := make(map[uint64]*model.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	names, err := store.Users().DisplayNames(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("display names: %w", err)
	}

	pairs := make([]standings.Pair, 0, len(preds))
	for _, p := range preds {
		pairs = append(pairs, standings.Pair{Prediction: p, Match: byID[p.MatchID]})
	}
	return standings.Aggregate(pairs, names), nil
}
