package api_router

import (
	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	apperrors "github.com/haierkeys/fast-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// FolderHandler 文件夹 API 路由处理器
type FolderHandler struct {
	*Handler
}

func NewFolderHandler(a *app.App) *FolderHandler {
	return &FolderHandler{Handler: NewHandler(a)}
}

// List GET /api/folders
func (h *FolderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	folders, err := h.App.FolderService.List(ctx)
	if err != nil {
		h.logError(ctx, "FolderHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(folders))
}

// Get GET /api/folders/:id
func (h *FolderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	folder, err := h.App.FolderService.Get(ctx, id)
	if err != nil {
		h.logError(ctx, "FolderHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(folder))
}

// Create POST /api/folders
func (h *FolderHandler) Create(c *gin.Context) {
	params := &dto.FolderCreateRequest{}
	if !h.bind(c, "FolderHandler.Create", params) {
		return
	}
	ctx := c.Request.Context()
	folder, err := h.App.FolderService.Create(ctx, params)
	if err != nil {
		h.logError(ctx, "FolderHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Created.WithData(folder))
}

// Update PUT /api/folders/:id
func (h *FolderHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	params := &dto.FolderUpdateRequest{}
	if !h.bind(c, "FolderHandler.Update", params) {
		return
	}
	ctx := c.Request.Context()
	folder, err := h.App.FolderService.Update(ctx, id, params)
	if err != nil {
		h.logError(ctx, "FolderHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(folder))
}

// Delete DELETE /api/folders/:id
func (h *FolderHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.App.FolderService.Delete(ctx, id); err != nil {
		h.logError(ctx, "FolderHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessFolderDeleted)
}
