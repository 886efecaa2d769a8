package upgrade

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/model"

	"gorm.io/gorm"
)

// NoteRevisionBackfill gives rows written before revisions were tracked revision 1,
// so strict revision checks have a value to compare against.
type NoteRevisionBackfill struct{}

func (*NoteRevisionBackfill) Version() string { return "0.1.0" }

func (*NoteRevisionBackfill) Description() string {
	return "backfill note revision"
}

func (*NoteRevisionBackfill) Up(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Model(&model.Note{}).
		Where("revision = ?", 0).
		UpdateColumn("revision", 1).Error
}

// NoteTagOrphanCleanup 删除指向已不存在标签或笔记的关联
type NoteTagOrphanCleanup struct{}

func (*NoteTagOrphanCleanup) Version() string { return "0.1.1" }

func (*NoteTagOrphanCleanup) Description() string {
	return "remove dangling note tag links"
}

func (*NoteTagOrphanCleanup) Up(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("tag_id NOT IN (?)", tx.Model(&model.Tag{}).Select("id")).
		Delete(&model.NoteTag{}).Error; err != nil {
		return err
	}
	return tx.Where("note_id NOT IN (?)", tx.Model(&model.Note{}).Select("id")).
		Delete(&model.NoteTag{}).Error
}
