package db

import "time"

// Session 记录访客最近一次心跳，每个 visitor_id 只有一行。
type Session struct {
	ID        uint      `gorm:"primaryKey"`
	VisitorID string    `gorm:"size:128;uniqueIndex;not null"`
	LastSeen  time.Time `gorm:"index"`
	CreatedAt time.Time
}

// TableName 与文档库中的集合名保持一致。
func (Session) TableName() string {
	return "session"
}
