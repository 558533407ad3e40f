package service

import (
	"context"
	"strings"

	"PredictionLeague/internal/apperr"
	"PredictionLeague/internal/model"
	"PredictionLeague/internal/repository"
)

// MatchService 比赛查询
type MatchService struct {
	store repository.Store
}

func NewMatchService(store repository.Store) *MatchService {
	return &MatchService{store: store}
}

// List status 取 upcoming/finished/all 或具体状态名，team 为主客队名称子串（不区分大小写），按开球时间升序
func (s *MatchService) List(ctx context.Context, status, team string) ([]*model.Match, error) {
	filter := repository.MatchFilter{Team: team}
	switch v := strings.ToLower(strings.TrimSpace(status)); v {
	case "", "all":
	case "upcoming":
		filter.Statuses = []model.MatchStatus{model.MatchScheduled, model.MatchLive}
	case "finished":
		filter.Statuses = []model.MatchStatus{model.MatchFinished}
	default:
		st := model.MatchStatus(strings.ToUpper(v))
		if !st.Valid() {
			return nil, apperr.InvalidInput("unknown match status filter %q", status)
		}
		filter.Statuses = []model.MatchStatus{st}
	}
	return s.store.Matches().List(ctx, filter)
}

func (s *MatchService) Get(ctx context.Context, id uint64) (*model.Match, error) {
	return s.store.Matches().GetByID(ctx, id, repository.LockNone)
}
