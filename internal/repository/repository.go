package repository

import (
	"context"
	"time"

	"PredictionLeague/internal/model"
	"PredictionLeague/internal/scoring"
)

// LockMode 行锁强度，仅在事务内生效
type LockMode int

const (
	LockNone LockMode = iota
	// LockShare 读取活跃赛季用于归属预测，阻止并发结算
	LockShare
	// LockUpdate 结算赛季时独占活跃赛季行；重新计分时独占比赛行
	LockUpdate
)

// MatchFilter 比赛列表筛选
type MatchFilter struct {
	Statuses []model.MatchStatus // 为空表示不限
	Team     string              // 主队或客队包含（不区分大小写）
	IDs      []uint64
	Before   *time.Time // 开球时间早于
}

// PredictionFilter 预测列表筛选，零值字段不参与过滤
type PredictionFilter struct {
	UserID   string
	MatchID  uint64
	SeasonID uint64
}

// UserRepository 用户仓储
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	// DisplayNames user_id → 显示名，ids 为空时返回全部
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// MatchRepository 比赛仓储
type MatchRepository interface {
	Create(ctx context.Context, m *model.Match) error
	Save(ctx context.Context, m *model.Match) error
	GetByID(ctx context.Context, id uint64, lock LockMode) (*model.Match, error)
	GetByExternalID(ctx context.Context, externalID int64) (*model.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*model.Match, error)
	// ListRescorePending 待重新计分的比赛（同步后计分失败时留下的标记）
	ListRescorePending(ctx context.Context, limit int) ([]*model.Match, error)
	SetRescorePending(ctx context.Context, id uint64, pending bool) error
	// SetScoringMode 批量设置计分制度并标记待重新计分，返回受影响行数
	SetScoringMode(ctx context.Context, ids []uint64, mode scoring.Mode) (int64, error)
}

// PredictionRepository 预测仓储
type PredictionRepository interface {
	// Upsert 按 (user_id, match_id) 插入或更新预测比分；SeasonID 仅在插入时写入
	Upsert(ctx context.Context, p *model.Prediction) error
	GetByID(ctx context.Context, id uint64) (*model.Prediction, error)
	GetByUserAndMatch(ctx context.Context, userID string, matchID uint64) (*model.Prediction, error)
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, filter PredictionFilter) ([]*model.Prediction, error)
	// UpdatePoints 只写积分字段，供计分引擎使用
	UpdatePoints(ctx context.Context, id uint64, b scoring.Breakdown, scoredAt *time.Time) error
}

// SeasonRepository 赛季仓储
type SeasonRepository interface {
	Create(ctx context.Context, s *model.Season) error
	Save(ctx context.Context, s *model.Season) error
	GetByID(ctx context.Context, id uint64) (*model.Season, error)
	GetActive(ctx context.Context, lock LockMode) (*model.Season, error)
	List(ctx context.Context) ([]*model.Season, error)
}

// Store 聚合所有仓储并提供事务边界。Transaction 内 fn 收到的 Store 绑定同一事务；
// fn 返回错误则整体回滚。
type Store interface {
	Users() UserRepository
	Matches() MatchRepository
	Predictions() PredictionRepository
	Seasons() SeasonRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
