package model

import (
	"time"

	"gorm.io/datatypes"
)

// Season 对应 seasons 表。任一时刻仅有一个 is_active=true（部分唯一索引保证）
type Season struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name           string         `gorm:"column:name;type:varchar(128);not null;comment:赛季名称" json:"name"`
	StartDate      time.Time      `gorm:"column:start_date;type:timestamptz;not null;comment:开始时间" json:"start_date"`
	EndDate        *time.Time     `gorm:"column:end_date;type:timestamptz;comment:结束时间，活跃中为空" json:"end_date,omitempty"`
	IsActive       bool           `gorm:"column:is_active;type:boolean;not null;default:false;uniqueIndex:uq_seasons_single_active,where:is_active;comment:是否活跃" json:"is_active"`
	WinnerUserID   *string        `gorm:"column:winner_user_id;type:varchar(36);comment:冠军用户ID" json:"winner_user_id,omitempty"`
	WinnerPoints   *int           `gorm:"column:winner_points;comment:冠军积分" json:"winner_points,omitempty"`
	FinalStandings datatypes.JSON `gorm:"column:final_standings;type:jsonb;comment:结算时的排行榜快照" json:"final_standings,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Season) TableName() string { return "seasons" }
