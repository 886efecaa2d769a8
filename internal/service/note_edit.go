package service

import (
	"strings"
	"time"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/pkg/code"
)

// ApplyNotePatch is the edit engine. It returns a new note with patch merged into existing:
// a content value different from the stored one first appends the stored content to the
// history tail, then every present field overwrites its counterpart. existing is not modified.
//
// A nil note or one owned by someone else is ErrorNoteNotFound; ownership is never reassigned.
func ApplyNotePatch(existing *domain.Note, patch domain.NotePatch, uid int64, now time.Time) (*domain.Note, error) {
	if existing == nil || existing.UID != uid {
		return nil, code.ErrorNoteNotFound
	}
	if patch.Title != nil {
		if err := checkTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Content != nil && *patch.Content == "" {
		return nil, code.ErrorInvalidParams.WithDetails("content cannot be empty")
	}

	next := *existing
	next.History = make([]domain.HistoryEntry, len(existing.History), len(existing.History)+1)
	copy(next.History, existing.History)
	next.TagIDs = append([]int64(nil), existing.TagIDs...)

	if patch.Content != nil && *patch.Content != existing.Content {
		next.History = append(next.History, domain.HistoryEntry{
			NoteID:    existing.ID,
			Content:   existing.Content,
			UpdatedAt: now,
		})
		next.Content = *patch.Content
	}
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.FolderID != nil {
		next.FolderID = *patch.FolderID
	}
	if patch.TagIDs != nil {
		next.TagIDs = dedupeIDs(*patch.TagIDs)
	}
	if patch.Pinned != nil {
		next.Pinned = *patch.Pinned
	}
	next.UpdatedAt = now

	return &next, nil
}

// checkTitle 标题不能为空且必须为单行，导出的标题行才能还原
func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return code.ErrorInvalidParams.WithDetails("title cannot be empty")
	}
	if strings.ContainsAny(title, "\r\n") {
		return code.ErrorInvalidParams.WithDetails("title must be a single line")
	}
	return nil
}

func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
