package model

import (
	"time"

	"PredictionLeague/internal/scoring"

	"gorm.io/datatypes"
)

// MatchStatus 比赛生命周期：SCHEDULED → LIVE → FINISHED，POSTPONED/CANCELLED 为旁路终态
type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchLive      MatchStatus = "LIVE"
	MatchFinished  MatchStatus = "FINISHED"
	MatchPostponed MatchStatus = "POSTPONED"
	MatchCancelled MatchStatus = "CANCELLED"
)

// Valid 是否为已知状态
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchLive, MatchFinished, MatchPostponed, MatchCancelled:
		return true
	}
	return false
}

// Match 对应 matches 表。比分仅在 FINISHED 时存在；半场比分即使 FINISHED 也可能缺失（历史数据）
type Match struct {
	ID                uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	ExternalID        int64          `gorm:"column:external_id;uniqueIndex;not null;comment:外部数据源比赛ID" json:"external_id"`
	Competition       string         `gorm:"column:competition;type:varchar(128);comment:赛事" json:"competition"`
	Season            string         `gorm:"column:season;type:varchar(16);comment:赛季标签，如2025/2026" json:"season"`
	HomeTeam          string         `gorm:"column:home_team;type:varchar(128);not null;comment:主队" json:"home_team"`
	AwayTeam          string         `gorm:"column:away_team;type:varchar(128);not null;comment:客队" json:"away_team"`
	KickoffUTC        time.Time      `gorm:"column:kickoff_utc;type:timestamptz;not null;index;comment:开球时间（即预测锁定时间）" json:"kickoff_utc"`
	Venue             string         `gorm:"column:venue;type:varchar(128);comment:场地" json:"venue,omitempty"`
	Status            MatchStatus    `gorm:"column:status;type:varchar(16);not null;default:SCHEDULED;index;comment:状态" json:"status"`
	HomeScore         *int           `gorm:"column:home_score;comment:主队全场进球" json:"home_score"`
	AwayScore         *int           `gorm:"column:away_score;comment:客队全场进球" json:"away_score"`
	HomeScoreHalftime *int           `gorm:"column:home_score_halftime;comment:主队半场进球" json:"home_score_halftime"`
	AwayScoreHalftime *int           `gorm:"column:away_score_halftime;comment:客队半场进球" json:"away_score_halftime"`
	ScoringMode       scoring.Mode   `gorm:"column:scoring_mode;type:varchar(16);not null;default:tiered;comment:计分制度 tiered/legacy" json:"scoring_mode"`
	RescorePending    bool           `gorm:"column:rescore_pending;type:boolean;not null;default:false;index;comment:待重新计分" json:"rescore_pending"`
	Payload           datatypes.JSON `gorm:"column:payload;type:jsonb;comment:最近一次外部同步的原始数据" json:"-"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Match) TableName() string { return "matches" }

// IsFinished 已结束且全场比分齐全才可计分
func (m *Match) IsFinished() bool {
	return m.Status == MatchFinished && m.HomeScore != nil && m.AwayScore != nil
}

// Locked 开球时刻（含）之后预测不可再修改
func (m *Match) Locked(now time.Time) bool {
	return !now.Before(m.KickoffUTC)
}

// Result 转为计分输入；未结束时 ok=false
func (m *Match) Result() (scoring.Result, bool) {
	if !m.IsFinished() {
		return scoring.Result{}, false
	}
	return scoring.Result{
		Home:   *m.HomeScore,
		Away:   *m.AwayScore,
		HomeHT: m.HomeScoreHalftime,
		AwayHT: m.AwayScoreHalftime,
	}, true
}
