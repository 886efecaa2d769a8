package domain

import "context"

// Repositories return gorm.ErrRecordNotFound for missing rows.

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID returns the user without the password hash.
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByEmail returns the user including the password hash.
	GetByEmail(ctx context.Context, email string) (*User, error)

	Create(ctx context.Context, user *User) (*User, error)
}

// NoteRepository 笔记仓储接口，所有读写都按 owner 过滤
type NoteRepository interface {
	// FindOwnedByID loads the note with its tags and history.
	FindOwnedByID(ctx context.Context, id, uid int64) (*Note, error)

	// FindAllOwned lists notes without history, pinned first, then most recently updated.
	FindAllOwned(ctx context.Context, uid int64, filter NoteFilter) ([]*Note, int64, error)

	// Save inserts the note when ID is 0, otherwise overwrites it (last write wins).
	// History entries with ID 0 are appended; persisted entries are never rewritten.
	Save(ctx context.Context, note *Note) (*Note, error)

	// DeleteOwnedByID removes the note and returns what was deleted.
	DeleteOwnedByID(ctx context.Context, id, uid int64) (*Note, error)
}

// RevisionedNoteRepository is the optional compare-and-swap capability of a NoteRepository.
type RevisionedNoteRepository interface {
	NoteRepository

	// SaveIfRevision saves only while the stored revision equals expected,
	// otherwise it returns ErrRevisionConflict.
	SaveIfRevision(ctx context.Context, note *Note, expected int64) (*Note, error)
}

// FolderRepository 文件夹仓储接口
type FolderRepository interface {
	GetByID(ctx context.Context, id int64) (*Folder, error)
	List(ctx context.Context) ([]*Folder, error)
	Create(ctx context.Context, folder *Folder) (*Folder, error)
	Update(ctx context.Context, folder *Folder) (*Folder, error)
	// Delete removes the folder and clears it from every note that referenced it.
	Delete(ctx context.Context, id int64) error
}

// TagRepository 标签仓储接口
type TagRepository interface {
	GetByID(ctx context.Context, id int64) (*Tag, error)
	GetByName(ctx context.Context, name string) (*Tag, error)
	// CountByIDs counts how many of ids exist.
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
	List(ctx context.Context) ([]*Tag, error)
	Create(ctx context.Context, tag *Tag) (*Tag, error)
	Update(ctx context.Context, tag *Tag) (*Tag, error)
	// Delete removes the tag and detaches it from every note.
	Delete(ctx context.Context, id int64) error
}
