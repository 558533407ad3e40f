package model

import "time"

// ExternalMatch 外部数据源推送的一场比赛（同步接口请求体中的一项）
type ExternalMatch struct {
	ExternalID        int64     `json:"external_id"`         // 数据源比赛ID
	Competition       string    `json:"competition"`         // 赛事
	Season            string    `json:"season"`              // 赛季标签
	HomeTeam          string    `json:"home_team"`           // 主队
	AwayTeam          string    `json:"away_team"`           // 客队
	KickoffUTC        time.Time `json:"kickoff_utc"`         // 开球时间（RFC3339）
	Venue             string    `json:"venue"`               // 场地
	Status            string    `json:"status"`              // SCHEDULED/LIVE/FINISHED/POSTPONED/CANCELLED
	HomeScore         *int      `json:"home_score"`          // 全场比分，未结束为空
	AwayScore         *int      `json:"away_score"`
	HomeScoreHalftime *int      `json:"home_score_halftime"` // 半场比分，可能缺失
	AwayScoreHalftime *int      `json:"away_score_halftime"`
}
