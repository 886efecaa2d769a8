package model

import "time"

const (
	TableNameNote        = "note"
	TableNameNoteHistory = "note_history"
	TableNameNoteTag     = "note_tag"
)

// Note mapped from table <note>
type Note struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UID       int64     `gorm:"column:uid;not null;index:idx_note_uid_updated,priority:1" json:"uid"`
	Title     string    `gorm:"column:title;size:500;not null" json:"title"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	FolderID  *int64    `gorm:"column:folder_id;index:idx_note_folder" json:"folderId"`
	Pinned    bool      `gorm:"column:pinned;not null;default:false" json:"pinned"`
	Revision  int64     `gorm:"column:revision;not null;default:0" json:"revision"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false;index:idx_note_uid_updated,priority:2" json:"updatedAt"`
}

func (*Note) TableName() string {
	return TableNameNote
}

// NoteHistory mapped from table <note_history>. Rows are insert-only.
type NoteHistory struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID    int64     `gorm:"column:note_id;not null;index:idx_note_history_note" json:"noteId"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
}

func (*NoteHistory) TableName() string {
	return TableNameNoteHistory
}

// NoteTag mapped from table <note_tag>
type NoteTag struct {
	NoteID int64 `gorm:"column:note_id;primaryKey" json:"noteId"`
	TagID  int64 `gorm:"column:tag_id;primaryKey;index:idx_note_tag_tag" json:"tagId"`
}

func (*NoteTag) TableName() string {
	return TableNameNoteTag
}
