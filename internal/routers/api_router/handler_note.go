package api_router

import (
	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	apperrors "github.com/haierkeys/fast-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// NoteHandler 笔记 API 路由处理器
// All routes run behind the auth gate; every call is scoped to the caller.
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{Handler: NewHandler(a)}
}

// List 笔记列表，支持搜索与分页
// GET /api/notes?search=&folder=&tag=&page=&pageSize=
func (h *NoteHandler) List(c *gin.Context) {
	params := &dto.NoteListRequest{}
	if !h.bind(c, "NoteHandler.List", params) {
		return
	}
	uid, ok := h.uid(c)
	if !ok {
		return
	}

	cfg := h.App.Config().App
	pager := &pkgapp.Pager{
		Page: pkgapp.GetPage(c),
		PageSize: pkgapp.GetPageSizeWithConfig(c, pkgapp.PaginationConfig{
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		}),
	}

	ctx := c.Request.Context()
	notes, total, err := h.App.NoteService.List(ctx, uid, params, pager)
	if err != nil {
		h.logError(ctx, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponseList(code.Success, notes, pkgapp.NewPager(pager.Page, pager.PageSize, total))
}

// Get 获取单条笔记（含历史）
// GET /api/notes/:id
func (h *NoteHandler) Get(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Get(ctx, uid, id)
	if err != nil {
		h.logError(ctx, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(note))
}

// Create 创建笔记
// POST /api/notes
func (h *NoteHandler) Create(c *gin.Context) {
	params := &dto.NoteCreateRequest{}
	if !h.bind(c, "NoteHandler.Create", params) {
		return
	}
	uid, ok := h.uid(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Created.WithData(note))
}

// Update 部分更新笔记，内容变化时旧内容进入历史
// PUT /api/notes/:id
func (h *NoteHandler) Update(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	params := &dto.NoteUpdateRequest{}
	if !h.bind(c, "NoteHandler.Update", params) {
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.NoteService.Update(ctx, uid, id, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(note))
}

// Delete 删除笔记
// DELETE /api/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.App.NoteService.Delete(ctx, uid, id); err != nil {
		h.logError(ctx, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.SuccessNoteDeleted.WithData(dto.NoteDeleteDTO{ID: id}))
}

// History 历史版本，旧的在前
// GET /api/notes/:id/history?diff=true
func (h *NoteHandler) History(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	params := &dto.NoteHistoryRequest{}
	if !h.bind(c, "NoteHandler.History", params) {
		return
	}

	ctx := c.Request.Context()
	entries, err := h.App.NoteService.History(ctx, uid, id, params.Diff)
	if err != nil {
		h.logError(ctx, "NoteHandler.History", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(entries))
}

// Export 导出笔记，默认 markdown 附件
// GET /api/notes/:id/export?format=markdown
func (h *NoteHandler) Export(c *gin.Context) {
	uid, ok := h.uid(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	params := &dto.NoteExportRequest{}
	if !h.bind(c, "NoteHandler.Export", params) {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.App.NoteService.Export(ctx, uid, id, params.Format)
	if err != nil {
		h.logError(ctx, "NoteHandler.Export", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToAttachment(doc.Filename, doc.ContentType, doc.Body)
}
