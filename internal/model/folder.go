package model

import "time"

const (
	TableNameFolder = "folder"
	TableNameTag    = "tag"
)

// Folder mapped from table <folder>
type Folder struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:255;not null" json:"name"`
	Description string    `gorm:"column:description;size:1000" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (*Folder) TableName() string {
	return TableNameFolder
}

// Tag mapped from table <tag>
type Tag struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:191;not null;uniqueIndex:idx_tag_name" json:"name"`
	Color     string    `gorm:"column:color;size:32" json:"color"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (*Tag) TableName() string {
	return TableNameTag
}
