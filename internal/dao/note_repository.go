package dao

import (
	"context"
	"time"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/model"

	"gorm.io/gorm"
)

type noteRepository struct {
	*Dao
}

// NewNoteRepository returns a note store that also supports compare-and-swap saves.
func NewNoteRepository(d *Dao) domain.RevisionedNoteRepository {
	return &noteRepository{Dao: d}
}

func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	n := &domain.Note{
		ID:        m.ID,
		UID:       m.UID,
		Title:     m.Title,
		Content:   m.Content,
		Pinned:    m.Pinned,
		Revision:  m.Revision,
		TagIDs:    []int64{},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.FolderID != nil {
		n.FolderID = *m.FolderID
	}
	return n
}

func folderColumn(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// tagIDs loads tag ids for every note in noteIDs.
func (r *noteRepository) tagIDs(tx *gorm.DB, noteIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(noteIDs))
	if len(noteIDs) == 0 {
		return out, nil
	}
	var rows []model.NoteTag
	if err := tx.Where("note_id IN ?", noteIDs).Order("note_id ASC, tag_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.NoteID] = append(out[row.NoteID], row.TagID)
	}
	return out, nil
}

func (r *noteRepository) history(tx *gorm.DB, noteID int64) ([]domain.HistoryEntry, error) {
	var rows []model.NoteHistory
	if err := tx.Where("note_id = ?", noteID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HistoryEntry, 0, len(rows))
	for _, h := range rows {
		out = append(out, domain.HistoryEntry{
			ID:        h.ID,
			NoteID:    h.NoteID,
			Content:   h.Content,
			UpdatedAt: h.UpdatedAt,
		})
	}
	return out, nil
}

func (r *noteRepository) findOwned(tx *gorm.DB, id, uid int64) (*domain.Note, error) {
	var m model.Note
	if err := tx.Where("id = ? AND uid = ?", id, uid).First(&m).Error; err != nil {
		return nil, err
	}
	n := r.toDomain(&m)

	tags, err := r.tagIDs(tx, []int64{m.ID})
	if err != nil {
		return nil, err
	}
	if ids, ok := tags[m.ID]; ok {
		n.TagIDs = ids
	}
	if n.History, err = r.history(tx, m.ID); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *noteRepository) FindOwnedByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	return r.findOwned(r.conn(ctx), id, uid)
}

func (r *noteRepository) FindAllOwned(ctx context.Context, uid int64, filter domain.NoteFilter) ([]*domain.Note, int64, error) {
	q := r.conn(ctx).Model(&model.Note{}).Where("uid = ?", uid)
	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(content) LIKE ? ESCAPE '!')", like, like)
	}
	if filter.FolderID > 0 {
		q = q.Where("folder_id = ?", filter.FolderID)
	}
	if filter.TagID > 0 {
		q = q.Where("id IN (?)", r.conn(ctx).Model(&model.NoteTag{}).Select("note_id").Where("tag_id = ?", filter.TagID))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []*model.Note
	q = q.Order("pinned DESC, updated_at DESC, id DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	tags, err := r.tagIDs(r.conn(ctx), ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*domain.Note, 0, len(ms))
	for _, m := range ms {
		n := r.toDomain(m)
		if t, ok := tags[m.ID]; ok {
			n.TagIDs = t
		}
		res = append(res, n)
	}
	return res, total, nil
}

func (r *noteRepository) Save(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	return r.save(ctx, note, nil)
}

func (r *noteRepository) SaveIfRevision(ctx context.Context, note *domain.Note, expected int64) (*domain.Note, error) {
	return r.save(ctx, note, &expected)
}

func (r *noteRepository) save(ctx context.Context, note *domain.Note, expected *int64) (*domain.Note, error) {
	var saved *domain.Note
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if note.ID == 0 {
			m := &model.Note{
				UID:       note.UID,
				Title:     note.Title,
				Content:   note.Content,
				FolderID:  folderColumn(note.FolderID),
				Pinned:    note.Pinned,
				Revision:  1,
				CreatedAt: note.CreatedAt,
				UpdatedAt: note.UpdatedAt,
			}
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			if m.UpdatedAt.IsZero() {
				m.UpdatedAt = m.CreatedAt
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
			note.ID = m.ID
		} else {
			updatedAt := note.UpdatedAt
			if updatedAt.IsZero() {
				updatedAt = now
			}
			q := tx.Model(&model.Note{}).Where("id = ? AND uid = ?", note.ID, note.UID)
			if expected != nil {
				q = q.Where("revision = ?", *expected)
			}
			res := q.Updates(map[string]interface{}{
				"title":      note.Title,
				"content":    note.Content,
				"folder_id":  folderColumn(note.FolderID),
				"pinned":     note.Pinned,
				"updated_at": updatedAt,
				"revision":   gorm.Expr("revision + 1"),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if expected == nil {
					return gorm.ErrRecordNotFound
				}
				var n int64
				if err := tx.Model(&model.Note{}).Where("id = ? AND uid = ?", note.ID, note.UID).Count(&n).Error; err != nil {
					return err
				}
				if n == 0 {
					return gorm.ErrRecordNotFound
				}
				return domain.ErrRevisionConflict
			}
			if err := tx.Where("note_id = ?", note.ID).Delete(&model.NoteTag{}).Error; err != nil {
				return err
			}
		}

		if len(note.TagIDs) > 0 {
			rows := make([]model.NoteTag, 0, len(note.TagIDs))
			seen := make(map[int64]struct{}, len(note.TagIDs))
			for _, id := range note.TagIDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				rows = append(rows, model.NoteTag{NoteID: note.ID, TagID: id})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		// 只追加新的历史记录，已持久化的条目不可变
		for _, h := range note.History {
			if h.ID != 0 {
				continue
			}
			row := &model.NoteHistory{NoteID: note.ID, Content: h.Content, UpdatedAt: h.UpdatedAt}
			if row.UpdatedAt.IsZero() {
				row.UpdatedAt = now
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}

		var err error
		saved, err = r.findOwned(tx, note.ID, note.UID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *noteRepository) DeleteOwnedByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	var deleted *domain.Note
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := r.findOwned(tx, id, uid)
		if err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", id).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", id).Delete(&model.NoteHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ? AND uid = ?", id, uid).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
