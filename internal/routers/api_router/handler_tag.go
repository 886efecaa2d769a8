package api_router

import (
	"github.com/haierkeys/fast-note-service/internal/app"
	"github.com/haierkeys/fast-note-service/internal/dto"
	pkgapp "github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	apperrors "github.com/haierkeys/fast-note-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// TagHandler 标签 API 路由处理器
type TagHandler struct {
	*Handler
}

func NewTagHandler(a *app.App) *TagHandler {
	return &TagHandler{Handler: NewHandler(a)}
}

// List GET /api/tags
func (h *TagHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tags, err := h.App.TagService.List(ctx)
	if err != nil {
		h.logError(ctx, "TagHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(tags))
}

// Get GET /api/tags/:id
func (h *TagHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	tag, err := h.App.TagService.Get(ctx, id)
	if err != nil {
		h.logError(ctx, "TagHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(tag))
}

// Create POST /api/tags
func (h *TagHandler) Create(c *gin.Context) {
	params := &dto.TagCreateRequest{}
	if !h.bind(c, "TagHandler.Create", params) {
		return
	}
	ctx := c.Request.Context()
	tag, err := h.App.TagService.Create(ctx, params)
	if err != nil {
		h.logError(ctx, "TagHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Created.WithData(tag))
}

// Update PUT /api/tags/:id
func (h *TagHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	params := &dto.TagUpdateRequest{}
	if !h.bind(c, "TagHandler.Update", params) {
		return
	}
	ctx := c.Request.Context()
	tag, err := h.App.TagService.Update(ctx, id, params)
	if err != nil {
		h.logError(ctx, "TagHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(tag))
}

// Delete DELETE /api/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.App.TagService.Delete(ctx, id); err != nil {
		h.logError(ctx, "TagHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessTagDeleted)
}
