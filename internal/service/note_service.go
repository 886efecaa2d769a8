package service

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/dto"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/diff"
	"github.com/haierkeys/fast-note-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteService 笔记业务服务接口，所有操作都按 uid 过滤
type NoteService interface {
	List(ctx context.Context, uid int64, params *dto.NoteListRequest, pager *app.Pager) ([]*dto.NoteSummaryDTO, int64, error)
	Get(ctx context.Context, uid, id int64) (*dto.NoteDTO, error)
	Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)
	Update(ctx context.Context, uid, id int64, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error)
	Delete(ctx context.Context, uid, id int64) error
	History(ctx context.Context, uid, id int64, withDiff bool) ([]dto.HistoryEntryDTO, error)
	Export(ctx context.Context, uid, id int64, format string) (*Document, error)
}

// WriteSerializer runs fn after earlier writes of the same owner, e.g. *writequeue.Manager.
type WriteSerializer interface {
	Execute(ctx context.Context, uid int64, fn func() error) error
}

type noteService struct {
	noteRepo   domain.NoteRepository
	folderRepo domain.FolderRepository
	tagRepo    domain.TagRepository
	writes     WriteSerializer
	notifier   ChangeNotifier
	logger     *zap.Logger
	config     *ServiceConfig
	now        func() time.Time
}

func NewNoteService(
	noteRepo domain.NoteRepository,
	folderRepo domain.FolderRepository,
	tagRepo domain.TagRepository,
	writes WriteSerializer,
	notifier ChangeNotifier,
	logger *zap.Logger,
	config *ServiceConfig,
) NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	return &noteService{
		noteRepo:   noteRepo,
		folderRepo: folderRepo,
		tagRepo:    tagRepo,
		writes:     writes,
		notifier:   notifier,
		logger:     logger,
		config:     config,
		now:        time.Now,
	}
}

// NoteToDTO 领域模型转 DTO
func NoteToDTO(n *domain.Note) *dto.NoteDTO {
	if n == nil {
		return nil
	}
	out := &dto.NoteDTO{
		ID:        n.ID,
		Owner:     n.UID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      append([]int64{}, n.TagIDs...),
		Pinned:    n.Pinned,
		History:   make([]dto.HistoryEntryDTO, 0, len(n.History)),
		Revision:  n.Revision,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.FolderID != 0 {
		folder := n.FolderID
		out.Folder = &folder
	}
	for _, h := range n.History {
		out.History = append(out.History, dto.HistoryEntryDTO{ID: h.ID, Content: h.Content, UpdatedAt: h.UpdatedAt})
	}
	return out
}

func noteToSummary(n *domain.Note) *dto.NoteSummaryDTO {
	out := &dto.NoteSummaryDTO{
		ID:        n.ID,
		Owner:     n.UID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      append([]int64{}, n.TagIDs...),
		Pinned:    n.Pinned,
		Revision:  n.Revision,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.FolderID != 0 {
		folder := n.FolderID
		out.Folder = &folder
	}
	return out
}

// noteError maps repository errors to result codes.
func noteError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return code.ErrorNoteNotFound
	case errors.Is(err, domain.ErrRevisionConflict):
		return code.ErrorNoteRevisionConflict
	case errors.Is(err, writequeue.ErrWriteQueueFull), errors.Is(err, writequeue.ErrWriteTimeout):
		return code.ErrorServerBusy
	}
	var c *code.Code
	if errors.As(err, &c) {
		return err
	}
	return code.ErrorDBWrite.WithDetails(err.Error())
}

// serialize runs fn in the owner's write queue, or inline without one.
func (s *noteService) serialize(ctx context.Context, uid int64, fn func() error) error {
	if s.writes == nil {
		return fn()
	}
	return s.writes.Execute(ctx, uid, fn)
}

func (s *noteService) publish(ctx context.Context, kind domain.NoteEventKind, note *dto.NoteDTO) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, kind, note)
	}
}

// checkRefs 校验引用的文件夹与标签存在
func (s *noteService) checkRefs(ctx context.Context, folderID int64, tagIDs []int64) error {
	if folderID < 0 {
		return code.ErrorFolderNotFound
	}
	if folderID > 0 {
		if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code.ErrorFolderNotFound
			}
			return code.ErrorDBQuery.WithDetails(err.Error())
		}
	}
	if len(tagIDs) > 0 {
		ids := dedupeIDs(tagIDs)
		n, err := s.tagRepo.CountByIDs(ctx, ids)
		if err != nil {
			return code.ErrorDBQuery.WithDetails(err.Error())
		}
		if n != int64(len(ids)) {
			return code.ErrorTagNotFound
		}
	}
	return nil
}

func (s *noteService) List(ctx context.Context, uid int64, params *dto.NoteListRequest, pager *app.Pager) ([]*dto.NoteSummaryDTO, int64, error) {
	filter := domain.NoteFilter{}
	if params != nil {
		filter.Search = params.Search
		filter.FolderID = params.Folder
		filter.TagID = params.Tag
	}
	if pager != nil {
		filter.Page = pager.Page
		filter.PageSize = pager.PageSize
	}

	notes, total, err := s.noteRepo.FindAllOwned(ctx, uid, filter)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	out := make([]*dto.NoteSummaryDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteToSummary(n))
	}
	return out, total, nil
}

func (s *noteService) get(ctx context.Context, uid, id int64) (*domain.Note, error) {
	n, err := s.noteRepo.FindOwnedByID(ctx, id, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return n, nil
}

func (s *noteService) Get(ctx context.Context, uid, id int64) (*dto.NoteDTO, error) {
	n, err := s.get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	return NoteToDTO(n), nil
}

func (s *noteService) Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	if err := checkTitle(params.Title); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, params.Folder, params.Tags); err != nil {
		return nil, err
	}

	now := s.now()
	note := &domain.Note{
		UID:       uid, // 所有者来自认证身份
		Title:     params.Title,
		Content:   params.Content,
		FolderID:  params.Folder,
		TagIDs:    dedupeIDs(params.Tags),
		Pinned:    params.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var saved *domain.Note
	err := s.serialize(ctx, uid, func() error {
		var err error
		saved, err = s.noteRepo.Save(ctx, note)
		return err
	})
	if err != nil {
		return nil, noteError(err)
	}

	out := NoteToDTO(saved)
	s.publish(ctx, domain.NoteEventCreated, out)
	return out, nil
}

func (s *noteService) Update(ctx context.Context, uid, id int64, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	patch := domain.NotePatch{
		Title:    params.Title,
		Content:  params.Content,
		FolderID: params.Folder,
		TagIDs:   params.Tags,
		Pinned:   params.Pinned,
	}
	var folderID int64
	if patch.FolderID != nil {
		folderID = *patch.FolderID
	}
	var tagIDs []int64
	if patch.TagIDs != nil {
		tagIDs = *patch.TagIDs
	}
	if err := s.checkRefs(ctx, folderID, tagIDs); err != nil {
		return nil, err
	}

	var saved *domain.Note
	err := s.serialize(ctx, uid, func() error {
		existing, err := s.noteRepo.FindOwnedByID(ctx, id, uid)
		if err != nil {
			return err
		}
		next, err := ApplyNotePatch(existing, patch, uid, s.now())
		if err != nil {
			return err
		}

		if cas, ok := s.noteRepo.(domain.RevisionedNoteRepository); ok && s.config.Note.StrictRevision {
			expected := existing.Revision
			if params.Revision != nil {
				expected = *params.Revision
			}
			saved, err = cas.SaveIfRevision(ctx, next, expected)
			return err
		}
		saved, err = s.noteRepo.Save(ctx, next)
		return err
	})
	if err != nil {
		return nil, noteError(err)
	}

	out := NoteToDTO(saved)
	// 每次成功的更新都会推送，包括内容未变化的更新
	s.publish(ctx, domain.NoteEventUpdated, out)
	return out, nil
}

func (s *noteService) Delete(ctx context.Context, uid, id int64) error {
	var deleted *domain.Note
	err := s.serialize(ctx, uid, func() error {
		var err error
		deleted, err = s.noteRepo.DeleteOwnedByID(ctx, id, uid)
		return err
	})
	if err != nil {
		return noteError(err)
	}
	s.publish(ctx, domain.NoteEventDeleted, NoteToDTO(deleted))
	return nil
}

func (s *noteService) History(ctx context.Context, uid, id int64, withDiff bool) ([]dto.HistoryEntryDTO, error) {
	n, err := s.get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	out := NoteToDTO(n).History
	if !withDiff || !s.config.Note.HistoryDiff {
		return out, nil
	}
	// 每个快照与替换它的版本比较，最后一个与当前内容比较
	for i := range out {
		next := n.Content
		if i+1 < len(out) {
			next = out[i+1].Content
		}
		d := diff.Compare(out[i].Content, next)
		out[i].Diff = &d
	}
	return out, nil
}

func (s *noteService) Export(ctx context.Context, uid, id int64, format string) (*Document, error) {
	n, err := s.get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	return RenderNote(n, format)
}
