package domain

import "time"

// NoteEventKind 笔记变更事件类型
type NoteEventKind string

const (
	NoteEventCreated NoteEventKind = "created"
	NoteEventUpdated NoteEventKind = "updated"
	NoteEventDeleted NoteEventKind = "deleted"
)

// HistoryEntry is one immutable snapshot of a note's earlier content.
// ID is zero until the entry has been persisted.
type HistoryEntry struct {
	ID        int64
	NoteID    int64
	Content   string
	UpdatedAt time.Time
}

// Note 笔记领域模型
type Note struct {
	ID       int64
	UID      int64 // owner
	Title    string
	Content  string
	FolderID int64 // 0 means no folder
	TagIDs   []int64
	Pinned   bool
	History  []HistoryEntry // oldest first
	// Revision is bumped by every save; it is the compare-and-swap stamp.
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotePatch carries the fields present in an update request. Nil means absent.
type NotePatch struct {
	Title    *string
	Content  *string
	FolderID *int64 // pointer to 0 clears the folder
	TagIDs   *[]int64
	Pinned   *bool
}

// NoteFilter 列表查询条件
type NoteFilter struct {
	Search   string // case-insensitive substring of title or content
	FolderID int64
	TagID    int64
	Page     int
	PageSize int
}
