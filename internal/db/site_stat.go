package db

import "time"

// SiteStat 保存站点级别的累计计数，目前只有 key = "global" 一行。
type SiteStat struct {
	ID         uint   `gorm:"primaryKey"`
	Key        string `gorm:"size:64;uniqueIndex;not null"`
	TotalViews int64  `gorm:"default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定自定义表名。
func (SiteStat) TableName() string {
	return "sitestat"
}
