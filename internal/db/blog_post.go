package db

import "time"

// BlogPost 定义了博客文章模型
type BlogPost struct {
	ID          uint     `gorm:"primaryKey"`
	Title       string   `gorm:"size:255;not null"`
	Content     string   `gorm:"type:text"`
	Author      string   `gorm:"size:255"`
	Tags        []string `gorm:"serializer:json;type:text"`
	CoverImage  *string
	PublishedAt time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名。
func (BlogPost) TableName() string {
	return "blogpost"
}
