package dto

import (
	"time"

	"github.com/haierkeys/fast-note-service/pkg/diff"
)

// NoteListRequest 笔记列表查询参数，分页参数由 app.Pager 解析
type NoteListRequest struct {
	Search string `json:"search" form:"search" binding:"max=200"`
	Folder int64  `json:"folder" form:"folder" binding:"min=0"`
	Tag    int64  `json:"tag" form:"tag" binding:"min=0"`
}

// NoteCreateRequest 创建笔记参数
// Any owner field sent by the client is ignored; the owner is the authenticated user.
type NoteCreateRequest struct {
	Title   string  `json:"title" form:"title" binding:"required,max=500"`
	Content string  `json:"content" form:"content" binding:"required"`
	Folder  int64   `json:"folder" form:"folder" binding:"min=0"`
	Tags    []int64 `json:"tags" form:"tags" binding:"omitempty,dive,gt=0"`
	Pinned  bool    `json:"pinned" form:"pinned"`
}

// NoteUpdateRequest partial update, absent fields are left untouched.
// folder = 0 clears the folder. revision is only checked in strict revision mode.
// NoteUpdateRequest 更新笔记参数
type NoteUpdateRequest struct {
	Title    *string  `json:"title"`
	Content  *string  `json:"content"`
	Folder   *int64   `json:"folder"`
	Tags     *[]int64 `json:"tags"`
	Pinned   *bool    `json:"pinned"`
	Revision *int64   `json:"revision"`
}

// NoteExportRequest 导出参数，默认 markdown
type NoteExportRequest struct {
	Format string `form:"format"`
}

// NoteHistoryRequest 历史记录查询参数
type NoteHistoryRequest struct {
	Diff bool `form:"diff"`
}

// HistoryEntryDTO 历史版本
// Diff compares the snapshot with the version that replaced it.
type HistoryEntryDTO struct {
	ID        int64        `json:"id"`
	Content   string       `json:"content"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Diff      *diff.Result `json:"diff,omitempty"`
}

// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID        int64             `json:"id"`
	Owner     int64             `json:"owner"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Folder    *int64            `json:"folder"`
	Tags      []int64           `json:"tags"`
	Pinned    bool              `json:"pinned"`
	History   []HistoryEntryDTO `json:"history"`
	Revision  int64             `json:"revision"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NoteSummaryDTO list item, history is not loaded for lists
// NoteSummaryDTO 列表项
type NoteSummaryDTO struct {
	ID        int64     `json:"id"`
	Owner     int64     `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Folder    *int64    `json:"folder"`
	Tags      []int64   `json:"tags"`
	Pinned    bool      `json:"pinned"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteEventDTO real-time change event payload
// NoteEventDTO 笔记变更事件
type NoteEventDTO struct {
	Event string   `json:"event"`
	Data  *NoteDTO `json:"data"`
}

// NoteDeleteDTO 删除结果
type NoteDeleteDTO struct {
	ID int64 `json:"id"`
}
