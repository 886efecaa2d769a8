package dto

import "time"

// FolderCreateRequest 创建文件夹参数
type FolderCreateRequest struct {
	Name        string `json:"name" form:"name" binding:"required,max=255"`
	Description string `json:"description" form:"description" binding:"max=1000"`
}

// FolderUpdateRequest 更新文件夹参数，缺省字段不变
type FolderUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type FolderDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TagCreateRequest 创建标签参数
type TagCreateRequest struct {
	Name  string `json:"name" form:"name" binding:"required,max=191"`
	Color string `json:"color" form:"color" binding:"max=32"`
}

// TagUpdateRequest 更新标签参数，缺省字段不变
type TagUpdateRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type TagDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
