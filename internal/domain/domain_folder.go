package domain

import "time"

// Folder 文件夹，所有用户共享
type Folder struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag 标签，名称全局唯一
type Tag struct {
	ID        int64
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
