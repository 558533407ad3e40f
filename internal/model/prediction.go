package model

import (
	"time"

	"PredictionLeague/internal/scoring"
)

// Prediction 对应 predictions 表，(user_id, match_id) 唯一。
// 积分字段只由计分引擎写入；SeasonID 为创建时的活跃赛季，之后不再变更。
type Prediction struct {
	ID                uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	UserID            string     `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uq_user_match;comment:用户ID" json:"user_id"`
	MatchID           uint64     `gorm:"column:match_id;type:bigint;not null;uniqueIndex:uq_user_match;index;comment:比赛ID" json:"match_id"`
	SeasonID          uint64     `gorm:"column:season_id;type:bigint;not null;index;comment:归属赛季ID" json:"season_id"`
	HomeScore         int        `gorm:"column:home_score;not null;comment:预测主队全场进球" json:"home_score"`
	AwayScore         int        `gorm:"column:away_score;not null;comment:预测客队全场进球" json:"away_score"`
	HomeScoreHalftime int        `gorm:"column:home_score_halftime;not null;default:0;comment:预测主队半场进球" json:"home_score_halftime"`
	AwayScoreHalftime int        `gorm:"column:away_score_halftime;not null;default:0;comment:预测客队半场进球" json:"away_score_halftime"`
	Points            int        `gorm:"column:points;not null;default:0;comment:总分" json:"points"`
	PointsWinner      int        `gorm:"column:points_winner;not null;default:0;comment:胜负分" json:"points_winner"`
	PointsHalftime    int        `gorm:"column:points_halftime;not null;default:0;comment:半场分" json:"points_halftime"`
	PointsDifference  int        `gorm:"column:points_difference;not null;default:0;comment:净胜球分" json:"points_difference"`
	PointsExact       int        `gorm:"column:points_exact;not null;default:0;comment:精确比分分" json:"points_exact"`
	ScoredAt          *time.Time `gorm:"column:scored_at;comment:最近计分时间，未计分为空" json:"scored_at,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Prediction) TableName() string { return "predictions" }

// Input 转为计分输入
func (p *Prediction) Input() scoring.Prediction {
	return scoring.Prediction{
		Home:   p.HomeScore,
		Away:   p.AwayScore,
		HomeHT: p.HomeScoreHalftime,
		AwayHT: p.AwayScoreHalftime,
	}
}

// Breakdown 已落库的得分明细
func (p *Prediction) Breakdown() scoring.Breakdown {
	return scoring.Breakdown{
		Winner:     p.PointsWinner,
		Halftime:   p.PointsHalftime,
		Difference: p.PointsDifference,
		Exact:      p.PointsExact,
		Total:      p.Points,
	}
}

// ApplyBreakdown 写入得分；scoredAt 为 nil 表示清空（比赛未结束）
func (p *Prediction) ApplyBreakdown(b scoring.Breakdown, scoredAt *time.Time) {
	p.PointsWinner = b.Winner
	p.PointsHalftime = b.Halftime
	p.PointsDifference = b.Difference
	p.PointsExact = b.Exact
	p.Points = b.Total
	p.ScoredAt = scoredAt
}
