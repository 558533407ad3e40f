package model

import "time"

// User 联赛成员
type User struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey;comment:用户ID(uuid)" json:"id"`
	Email       string    `gorm:"column:email;type:varchar(256);uniqueIndex;not null;comment:邮箱" json:"email"`
	DisplayName string    `gorm:"column:display_name;type:varchar(128);not null;comment:显示名" json:"display_name"`
	AvatarURL   string    `gorm:"column:avatar_url;type:varchar(512);comment:头像" json:"avatar_url,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }
